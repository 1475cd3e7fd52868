// Package limits provides centralized size limits for receiver input.
//
// Everything a sender controls is bounded before it is buffered:
//
//   - MaxDatagram (2048 bytes): read buffer for the audio and control ports.
//   - MaxHeaderBlock (16 KiB): a control request's header block.
//   - MaxContentLength (8 MiB): a control request body, sized for artwork.
//
// # Validation Functions
//
//	if err := limits.ValidateContentLength(n); err != nil {
//	    // ErrInvalidLength or ErrMessageTooLarge
//	}
//
// For custom limits, use ValidateMessageSize:
//
//	err := limits.ValidateMessageSize(data, 4096)
package limits
