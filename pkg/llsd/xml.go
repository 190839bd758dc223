package llsd

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/opensim-go/viewercircuit/pkg/types"
)

// ReadXML decodes a single LLSD value from an `<llsd>...</llsd>` document.
func ReadXML(data []byte) (Value, error) {
	dec := xml.NewDecoder(strings.NewReader(string(data)))
	// Find the <llsd> root.
	for {
		tok, err := dec.Token()
		if err != nil {
			return Value{}, fmt.Errorf("llsd: xml: %w", err)
		}
		if se, ok := tok.(xml.StartElement); ok {
			if se.Name.Local != "llsd" {
				return Value{}, fmt.Errorf("llsd: xml: expected <llsd> root, got <%s>", se.Name.Local)
			}
			break
		}
	}
	v, err := readXMLValue(dec)
	if err != nil {
		return Value{}, err
	}
	return v, nil
}

// readXMLValue reads exactly one value: the next StartElement is consumed
// as the value's type tag.
func readXMLValue(dec *xml.Decoder) (Value, error) {
	for {
		tok, err := dec.Token()
		if err != nil {
			return Value{}, fmt.Errorf("llsd: xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			return readXMLElement(dec, t)
		case xml.EndElement:
			// </llsd> with no content inside: treat as undef.
			return Undef(), nil
		case xml.CharData:
			if len(strings.TrimSpace(string(t))) > 0 {
				return Value{}, fmt.Errorf("llsd: xml: unexpected text %q", string(t))
			}
		}
	}
}

func readXMLElement(dec *xml.Decoder, start xml.StartElement) (Value, error) {
	name := start.Name.Local
	switch name {
	case "undef":
		if err := skipToEnd(dec); err != nil {
			return Value{}, err
		}
		return Undef(), nil
	case "boolean":
		text, err := readText(dec)
		if err != nil {
			return Value{}, err
		}
		switch strings.TrimSpace(text) {
		case "", "0", "false":
			return NewBoolean(false), nil
		case "1", "true":
			return NewBoolean(true), nil
		default:
			return Value{}, fmt.Errorf("llsd: xml: invalid boolean %q", text)
		}
	case "integer":
		text, err := readText(dec)
		if err != nil {
			return Value{}, err
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return NewInteger(0), nil
		}
		i, err := strconv.ParseInt(text, 10, 32)
		if err != nil {
			return Value{}, fmt.Errorf("llsd: xml: invalid integer %q: %w", text, err)
		}
		return NewInteger(int32(i)), nil
	case "real":
		text, err := readText(dec)
		if err != nil {
			return Value{}, err
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return NewReal(0), nil
		}
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Value{}, fmt.Errorf("llsd: xml: invalid real %q: %w", text, err)
		}
		return NewReal(f), nil
	case "uuid":
		text, err := readText(dec)
		if err != nil {
			return Value{}, err
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return NewUUID(types.Nil), nil
		}
		u, err := types.ParseUUID(text)
		if err != nil {
			return Value{}, fmt.Errorf("llsd: xml: invalid uuid %q: %w", text, err)
		}
		return NewUUID(u), nil
	case "string":
		text, err := readText(dec)
		if err != nil {
			return Value{}, err
		}
		return NewString(text), nil
	case "uri":
		text, err := readText(dec)
		if err != nil {
			return Value{}, err
		}
		return NewURI(text), nil
	case "date":
		text, err := readText(dec)
		if err != nil {
			return Value{}, err
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return NewDate(time.Time{}), nil
		}
		t, err := time.Parse(time.RFC3339, text)
		if err != nil {
			return Value{}, fmt.Errorf("llsd: xml: invalid date %q: %w", text, err)
		}
		return NewDate(t.UTC()), nil
	case "binary":
		encAttr := "base64"
		for _, a := range start.Attr {
			if a.Name.Local == "encoding" {
				encAttr = a.Value
			}
		}
		text, err := readText(dec)
		if err != nil {
			return Value{}, err
		}
		text = strings.TrimSpace(text)
		var raw []byte
		switch encAttr {
		case "base64":
			raw, err = base64.StdEncoding.DecodeString(text)
		case "base16":
			// base16 is plain hex; upper and lower case digits are accepted.
			raw, err = hex.DecodeString(text)
		case "base85":
			return Value{}, fmt.Errorf("llsd: xml: base85 binary encoding is not supported")
		default:
			return Value{}, fmt.Errorf("llsd: xml: unknown binary encoding %q", encAttr)
		}
		if err != nil {
			return Value{}, fmt.Errorf("llsd: xml: decode binary: %w", err)
		}
		return NewBinary(raw), nil
	case "array":
		var items []Value
		for {
			tok, err := dec.Token()
			if err != nil {
				return Value{}, fmt.Errorf("llsd: xml: %w", err)
			}
			switch t := tok.(type) {
			case xml.StartElement:
				v, err := readXMLElement(dec, t)
				if err != nil {
					return Value{}, err
				}
				items = append(items, v)
			case xml.EndElement:
				return NewArray(items), nil
			}
		}
	case "map":
		m := make(map[string]Value)
		var pendingKey *string
		for {
			tok, err := dec.Token()
			if err != nil {
				return Value{}, fmt.Errorf("llsd: xml: %w", err)
			}
			switch t := tok.(type) {
			case xml.StartElement:
				if t.Name.Local == "key" {
					text, err := readText(dec)
					if err != nil {
						return Value{}, err
					}
					k := text
					pendingKey = &k
					continue
				}
				if pendingKey == nil {
					return Value{}, fmt.Errorf("llsd: xml: map value without preceding key")
				}
				v, err := readXMLElement(dec, t)
				if err != nil {
					return Value{}, err
				}
				m[*pendingKey] = v
				pendingKey = nil
			case xml.EndElement:
				return NewMap(m), nil
			}
		}
	default:
		return Value{}, fmt.Errorf("llsd: xml: unknown element <%s>", name)
	}
}

func readText(dec *xml.Decoder) (string, error) {
	var sb strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			if err == io.EOF {
				return sb.String(), nil
			}
			return "", fmt.Errorf("llsd: xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			sb.Write(t)
		case xml.EndElement:
			return sb.String(), nil
		case xml.StartElement:
			return "", fmt.Errorf("llsd: xml: unexpected nested element <%s>", t.Name.Local)
		}
	}
}

func skipToEnd(dec *xml.Decoder) error {
	for {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("llsd: xml: %w", err)
		}
		if _, ok := tok.(xml.EndElement); ok {
			return nil
		}
	}
}

// WriteXML encodes v as an `<llsd>...</llsd>` document. Binary values are
// always written base64-encoded, per §4.D.
func WriteXML(v Value) []byte {
	var sb strings.Builder
	sb.WriteString("<llsd>")
	writeXMLValue(&sb, v)
	sb.WriteString("</llsd>")
	return []byte(sb.String())
}

func writeXMLValue(sb *strings.Builder, v Value) {
	switch v.kind {
	case KindUndef:
		sb.WriteString("<undef/>")
	case KindBoolean:
		if v.boolVal {
			sb.WriteString("<boolean>1</boolean>")
		} else {
			sb.WriteString("<boolean>0</boolean>")
		}
	case KindInteger:
		fmt.Fprintf(sb, "<integer>%d</integer>", v.intVal)
	case KindReal:
		fmt.Fprintf(sb, "<real>%s</real>", strconv.FormatFloat(v.realVal, 'g', -1, 64))
	case KindUUID:
		fmt.Fprintf(sb, "<uuid>%s</uuid>", v.uuidVal.String())
	case KindString:
		sb.WriteString("<string>")
		xml.EscapeText(sb2writer{sb}, []byte(v.stringVal))
		sb.WriteString("</string>")
	case KindURI:
		sb.WriteString("<uri>")
		xml.EscapeText(sb2writer{sb}, []byte(v.stringVal))
		sb.WriteString("</uri>")
	case KindDate:
		fmt.Fprintf(sb, "<date>%s</date>", v.dateVal.Format(time.RFC3339))
	case KindBinary:
		fmt.Fprintf(sb, `<binary encoding="base64">%s</binary>`, base64.StdEncoding.EncodeToString(v.binVal))
	case KindArray:
		sb.WriteString("<array>")
		for _, item := range v.arrVal {
			writeXMLValue(sb, item)
		}
		sb.WriteString("</array>")
	case KindMap:
		sb.WriteString("<map>")
		for _, key := range sortedMapKeys(v.mapVal) {
			sb.WriteString("<key>")
			xml.EscapeText(sb2writer{sb}, []byte(key))
			sb.WriteString("</key>")
			writeXMLValue(sb, v.mapVal[key])
		}
		sb.WriteString("</map>")
	default:
		panic(fmt.Sprintf("llsd: xml write: unhandled kind %v", v.kind))
	}
}

// sb2writer adapts *strings.Builder to io.Writer for xml.EscapeText.
type sb2writer struct {
	sb *strings.Builder
}

func (w sb2writer) Write(p []byte) (int, error) {
	return w.sb.Write(p)
}
