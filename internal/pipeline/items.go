package pipeline

// ItemType is the kind of deliverable a pending item asks for. It is fixed at
// creation.
type ItemType string

const (
	ItemFile         ItemType = "file"
	ItemText         ItemType = "text"
	ItemConfirmation ItemType = "confirmation"
)

// ItemStatus is the lifecycle of a pending item. Any status may follow any other.
type ItemStatus string

const (
	ItemPending   ItemStatus = "pending"
	ItemReceived  ItemStatus = "received"
	ItemReviewing ItemStatus = "reviewing"
)

var (
	itemTypes    = []string{string(ItemFile), string(ItemText), string(ItemConfirmation)}
	itemStatuses = []string{string(ItemPending), string(ItemReceived), string(ItemReviewing)}
)

// ParseItemType validates a pending item type.
func ParseItemType(raw string) (ItemType, error) {
	for _, v := range itemTypes {
		if v == raw {
			return ItemType(v), nil
		}
	}
	return "", invalid("type", raw, itemTypes, ErrInvalidItemType)
}

// ParseItemStatus validates a pending item status.
func ParseItemStatus(raw string) (ItemStatus, error) {
	for _, v := range itemStatuses {
		if v == raw {
			return ItemStatus(v), nil
		}
	}
	return "", invalid("status", raw, itemStatuses, ErrInvalidItemStatus)
}
