package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/mdp/qrterminal/v3"
	"github.com/skip2/go-qrcode"
)

// showPairing prints the pairing identifier as a terminal QR code and
// optionally saves it as a PNG.
func showPairing(w io.Writer, id, qrFile string, logger *slog.Logger) {
	if qrFile != "" {
		if err := qrcode.WriteFile(id, qrcode.Medium, 256, qrFile); err != nil {
			logger.Error("failed to save QR code to file", "error", err)
		} else {
			logger.Info("QR code saved to file", "path", qrFile)
		}
	}

	fmt.Fprintf(w, "\n\nPaired with identifier %s\n", id)
	qrterminal.GenerateHalfBlock(id, qrterminal.L, w)
	fmt.Fprintln(w)
}
