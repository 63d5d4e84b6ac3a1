package blockkit

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Block types.
const (
	TypeSection = "section"
	TypeDivider = "divider"
	TypeImage   = "image"
	TypeHeader  = "header"
	TypeContext = "context"
	TypeActions = "actions"
)

// Text object types.
const (
	TextPlain    = "plain_text"
	TextMarkdown = "mrkdwn"
)

// MaxBlocks is the most blocks a single message may carry.
const MaxBlocks = 50

// ErrUnknownBlockType is returned when decoding a block with an unrecognized tag.
var ErrUnknownBlockType = errors.New("unknown block type")

// TextObject is a plain_text or mrkdwn text element.
type TextObject struct {
	Type     string `json:"type"`
	Text     string `json:"text"`
	Emoji    *bool  `json:"emoji,omitempty"`
	Verbatim *bool  `json:"verbatim,omitempty"`
}

// PlainText builds a plain_text object.
func PlainText(text string) TextObject {
	return TextObject{Type: TextPlain, Text: text}
}

// Markdown builds a mrkdwn object.
func Markdown(text string) TextObject {
	return TextObject{Type: TextMarkdown, Text: text}
}

// Block is one element of a layout. Each variant carries only its own fields.
type Block interface {
	BlockType() string
}

type SectionBlock struct {
	Text      *TextObject     `json:"text,omitempty"`
	Fields    []TextObject    `json:"fields,omitempty"`
	Accessory json.RawMessage `json:"accessory,omitempty"`
	BlockID   string          `json:"block_id,omitempty"`
}

type DividerBlock struct {
	BlockID string `json:"block_id,omitempty"`
}

type ImageBlock struct {
	ImageURL string      `json:"image_url"`
	AltText  string      `json:"alt_text"`
	Title    *TextObject `json:"title,omitempty"`
	BlockID  string      `json:"block_id,omitempty"`
}

// HeaderBlock text is always plain_text.
type HeaderBlock struct {
	Text    TextObject `json:"text"`
	BlockID string     `json:"block_id,omitempty"`
}

type ContextBlock struct {
	Elements []ContextElement `json:"elements"`
	BlockID  string           `json:"block_id,omitempty"`
}

// ActionsBlock elements are interactive components passed through as-is.
type ActionsBlock struct {
	Elements []json.RawMessage `json:"elements"`
	BlockID  string            `json:"block_id,omitempty"`
}

func (SectionBlock) BlockType() string { return TypeSection }
func (DividerBlock) BlockType() string { return TypeDivider }
func (ImageBlock) BlockType() string   { return TypeImage }
func (HeaderBlock) BlockType() string  { return TypeHeader }
func (ContextBlock) BlockType() string { return TypeContext }
func (ActionsBlock) BlockType() string { return TypeActions }

func (b SectionBlock) MarshalJSON() ([]byte, error) {
	type alias SectionBlock
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{TypeSection, alias(b)})
}

func (b DividerBlock) MarshalJSON() ([]byte, error) {
	type alias DividerBlock
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{TypeDivider, alias(b)})
}

func (b ImageBlock) MarshalJSON() ([]byte, error) {
	type alias ImageBlock
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{TypeImage, alias(b)})
}

func (b HeaderBlock) MarshalJSON() ([]byte, error) {
	type alias HeaderBlock
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{TypeHeader, alias(b)})
}

func (b ContextBlock) MarshalJSON() ([]byte, error) {
	type alias ContextBlock
	if b.Elements == nil {
		b.Elements = []ContextElement{}
	}
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{TypeContext, alias(b)})
}

func (b ActionsBlock) MarshalJSON() ([]byte, error) {
	type alias ActionsBlock
	if b.Elements == nil {
		b.Elements = []json.RawMessage{}
	}
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{TypeActions, alias(b)})
}

// ImageElement is an image inside a context block.
type ImageElement struct {
	ImageURL string `json:"image_url"`
	AltText  string `json:"alt_text"`
}

// ContextElement holds exactly one of Text or Image.
type ContextElement struct {
	Text  *TextObject
	Image *ImageElement
}

func (e ContextElement) MarshalJSON() ([]byte, error) {
	switch {
	case e.Text != nil:
		return json.Marshal(e.Text)
	case e.Image != nil:
		return json.Marshal(struct {
			Type string `json:"type"`
			ImageElement
		}{TypeImage, *e.Image})
	default:
		return nil, errors.New("context element is empty")
	}
}

func (e *ContextElement) UnmarshalJSON(data []byte) error {
	tag, err := peekType(data)
	if err != nil {
		return err
	}
	switch tag {
	case TextPlain, TextMarkdown:
		var t TextObject
		if err := json.Unmarshal(data, &t); err != nil {
			return err
		}
		*e = ContextElement{Text: &t}
	case TypeImage:
		var img ImageElement
		if err := json.Unmarshal(data, &img); err != nil {
			return err
		}
		*e = ContextElement{Image: &img}
	default:
		return fmt.Errorf("unknown context element type %q", tag)
	}
	return nil
}

// Blocks is an ordered layout document.
type Blocks []Block

// UnmarshalJSON decodes each element by its type tag. Unknown tags are an
// error wrapping ErrUnknownBlockType.
func (bs *Blocks) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return err
	}
	if raws == nil {
		*bs = nil
		return nil
	}

	out := make(Blocks, 0, len(raws))
	for i, raw := range raws {
		b, err := decodeBlock(raw)
		if err != nil {
			return fmt.Errorf("block %d: %w", i, err)
		}
		out = append(out, b)
	}
	*bs = out
	return nil
}

func decodeBlock(raw json.RawMessage) (Block, error) {
	tag, err := peekType(raw)
	if err != nil {
		return nil, err
	}
	switch tag {
	case TypeSection:
		return decodeAs[SectionBlock](raw)
	case TypeDivider:
		return decodeAs[DividerBlock](raw)
	case TypeImage:
		return decodeAs[ImageBlock](raw)
	case TypeHeader:
		return decodeAs[HeaderBlock](raw)
	case TypeContext:
		return decodeAs[ContextBlock](raw)
	case TypeActions:
		return decodeAs[ActionsBlock](raw)
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownBlockType, tag)
	}
}

func decodeAs[T Block](raw json.RawMessage) (Block, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func peekType(data []byte) (string, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return "", err
	}
	if probe.Type == "" {
		return "", errors.New("missing type")
	}
	return probe.Type, nil
}
