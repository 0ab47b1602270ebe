package main

import (
	"github.com/aws/aws-lambda-go/lambda"

	"gitlab.connectwisedev.com/storefront-service/pkg/api"
	"gitlab.connectwisedev.com/storefront-service/pkg/bootstrap"
)

var (
	services *bootstrap.Services
	handler  *api.Handler
)

func init() {
	services = bootstrap.MustNew()
	handler = api.New(services)
}

func main() {
	defer services.Close()
	lambda.Start(handler.ProductAdmin)
}
