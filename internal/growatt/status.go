// internal/growatt/status.go
package growatt

import "fmt"

// Device status codes per the vendor protocol.
const (
	StatusWaiting = 0
	StatusNormal  = 1
	StatusFault   = 3
)

// statusNames maps the documented status codes to display strings.
var statusNames = map[int]string{
	StatusWaiting: "Waiting",
	StatusNormal:  "Normal",
	StatusFault:   "Fault",
}

// StatusString renders a device status code. Firmware variants report
// codes the protocol document does not list, so unmapped codes fall back
// to "unknown (code N)" instead of failing the snapshot.
func StatusString(code int) string {
	if s, ok := statusNames[code]; ok {
		return s
	}
	return fmt.Sprintf("unknown (code %d)", code)
}
