package orders

import "gitlab.connectwisedev.com/storefront-service/models"

// transitions lists the statuses reachable from each status. Completed and
// cancelled orders are terminal.
var transitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusPending:   {models.OrderStatusCompleted, models.OrderStatusCancelled},
	models.OrderStatusCompleted: {},
	models.OrderStatusCancelled: {},
}

// CanTransition reports whether an order in status from may move to to.
func CanTransition(from, to models.OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
