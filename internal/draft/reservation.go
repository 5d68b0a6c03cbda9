package draft

import "fmt"

// Reserve clamps requestedQty to what is left of availableQty after
// alreadyReservedQty. When the result is smaller than requested the
// returned warning tells how many units remain. It never fails.
func Reserve(requestedQty, availableQty, alreadyReservedQty int) (int, string) {
	remaining := availableQty - alreadyReservedQty
	if remaining < 0 {
		remaining = 0
	}
	if requestedQty <= remaining {
		return requestedQty, ""
	}
	return remaining, fmt.Sprintf("Only %d available", remaining)
}

// Release gives qty back from reservedQty and returns what stays reserved.
func Release(reservedQty, qty int) int {
	if qty > reservedQty {
		return 0
	}
	return reservedQty - qty
}
