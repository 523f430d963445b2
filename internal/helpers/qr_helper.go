package helpers

import (
	"encoding/base64"

	qrcode "github.com/skip2/go-qrcode"
)

// TicketQRCode renders the public ticket number as a PNG QR code, base64
// encoded for inline embedding in the creation response.
func TicketQRCode(ticketNumber string) (string, error) {
	png, err := qrcode.Encode(ticketNumber, qrcode.Medium, 256)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(png), nil
}
