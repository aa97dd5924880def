package httpx

import "context"

// deviceKey is an unexported context key type to avoid collisions across packages.
type deviceKey struct{}

// SetDeviceInContext returns a child context carrying the browser's device id.
// An empty id returns ctx unchanged.
func SetDeviceInContext(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, deviceKey{}, id)
}

// GetDeviceFromContext returns the device id and whether one is present.
func GetDeviceFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(deviceKey{}).(string)
	return id, ok && id != ""
}
