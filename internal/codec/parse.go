package codec

import "tracker/internal/core"

// Parse decodes an import file into validated inputs. Ids present in the
// file are dropped; the store assigns new ones when the inputs are appended.
// The whole file is rejected if any record is malformed.
func Parse(text string, f Format) ([]core.Input, error) {
	switch f {
	case FormatCSV:
		return parseCSV(text)
	case FormatJSON:
		return parseJSON(text)
	default:
		return nil, &ParseError{Format: f, Reason: "unsupported format", Err: ErrUnknownFormat}
	}
}
