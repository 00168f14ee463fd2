// ABOUTME: Version and product identification
// ABOUTME: Reported in stream/hello device info and receiver logs
package version

const (
	Version      = "0.3.0"
	Product      = "sco-go"
	Manufacturer = "Sendspin"
)
