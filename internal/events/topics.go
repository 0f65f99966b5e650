package events

// Topic constants for domain events emitted by the register.
const (
	TopicSaleCompleted   = "sale.completed"
	TopicSaleCancelled   = "sale.cancelled"
	TopicLoyaltyAdjusted = "loyalty.adjusted"
	TopicPriceChanged    = "price.changed"
)
