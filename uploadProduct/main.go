package main

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"gitlab.connectwisedev.com/storefront-service/pkg/bootstrap"
	"gitlab.connectwisedev.com/storefront-service/pkg/catalog"
)

var services *bootstrap.Services

func init() {
	services = bootstrap.MustNew()
}

// S3EventWrapper is a custom struct to handle either S3 events or direct CSV payload
type S3EventWrapper struct {
	Records []events.S3EventRecord `json:"Records,omitempty"`
	CSVData string                 `json:"csv_data,omitempty"` // For local testing
}

func handler(ctx context.Context, event S3EventWrapper) (catalog.ImportResult, error) {
	csvContent, err := readCSV(event)
	if err != nil {
		return catalog.ImportResult{}, err
	}

	result, err := services.Catalog.ImportCSV(ctx, bytes.NewReader(csvContent))
	if err != nil {
		return result, fmt.Errorf("import failed: %w", err)
	}
	return result, nil
}

// readCSV picks the CSV source. S3 objects are only read in the local
// environment, from products.csv in the working directory.
func readCSV(event S3EventWrapper) ([]byte, error) {
	switch {
	case len(event.Records) > 0:
		s3Record := event.Records[0].S3
		log.Printf("Processing S3 event for bucket: %s, key: %s", s3Record.Bucket.Name, s3Record.Object.Key)

		if services.Config.AppEnv != "local" {
			return nil, fmt.Errorf("S3 download is not available outside the local environment (bucket %s, key %s)",
				s3Record.Bucket.Name, s3Record.Object.Key)
		}
		log.Println("Running in local environment, reading products.csv for S3 simulation.")
		content, err := os.ReadFile("products.csv")
		if err != nil {
			return nil, fmt.Errorf("failed to read local products.csv for S3 simulation: %w", err)
		}
		return content, nil

	case event.CSVData != "":
		log.Println("Processing direct CSV data payload.")
		return []byte(event.CSVData), nil
	}
	return nil, fmt.Errorf("no S3 event record or direct CSV data found in the payload")
}

func main() {
	defer services.Close()
	lambda.Start(handler)
}
