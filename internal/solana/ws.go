package solana

import "context"

// WSClient defines the Solana WebSocket subscription interface.
type WSClient interface {
	// SubscribeSignature subscribes to the commitment notification for one
	// transaction signature. The returned channel delivers at most one
	// result and is closed afterwards; it is also closed without a value
	// if the connection is lost before the notification arrives.
	SubscribeSignature(ctx context.Context, signature string) (<-chan SignatureResult, error)

	// Close closes the WebSocket connection.
	Close() error
}

// SignatureResult is a signature subscription notification.
type SignatureResult struct {
	Slot int64
	// Err is nil when the transaction committed successfully, otherwise
	// it carries the cluster's error value.
	Err interface{}
}
