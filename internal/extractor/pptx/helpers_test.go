package pptx

import (
	"encoding/xml"
	"strings"
)

func unmarshalString(s string, v any) error {
	return xml.NewDecoder(strings.NewReader(s)).Decode(v)
}
