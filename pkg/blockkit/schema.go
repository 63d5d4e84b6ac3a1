package blockkit

import "github.com/harun/slackmcp/pkg/schema"

// TextObjectSchema describes a plain_text or mrkdwn text object.
func TextObjectSchema() *schema.Node {
	return schema.Object(
		schema.Required("type", schema.String("").OneOf(TextPlain, TextMarkdown)),
		schema.Required("text", schema.String("")),
		schema.Optional("emoji", schema.Boolean("")),
		schema.Optional("verbatim", schema.Boolean("")),
	)
}

func plainTextSchema() *schema.Node {
	return schema.Object(
		schema.Required("type", schema.Literal(TextPlain)),
		schema.Required("text", schema.String("")),
		schema.Optional("emoji", schema.Boolean("")),
	)
}

func imageElementSchema() *schema.Node {
	return schema.Object(
		schema.Required("type", schema.Literal(TypeImage)),
		schema.Required("image_url", schema.String("").URI()),
		schema.Required("alt_text", schema.String("")),
	)
}

func blockID() schema.Property {
	return schema.Optional("block_id", schema.String(""))
}

// BlockSchema describes one block, selected by its type tag.
func BlockSchema() *schema.Node {
	return schema.Union("type", "block type",
		schema.Object(
			schema.Required("type", schema.Literal(TypeSection)),
			schema.Optional("text", TextObjectSchema()),
			blockID(),
			schema.Optional("fields", schema.Array(TextObjectSchema(), "")),
			schema.Optional("accessory", schema.Any("")),
		),
		schema.Object(
			schema.Required("type", schema.Literal(TypeDivider)),
			blockID(),
		),
		schema.Object(
			schema.Required("type", schema.Literal(TypeImage)),
			schema.Required("image_url", schema.String("").URI()),
			schema.Required("alt_text", schema.String("")),
			schema.Optional("title", TextObjectSchema()),
			blockID(),
		),
		schema.Object(
			schema.Required("type", schema.Literal(TypeHeader)),
			schema.Required("text", plainTextSchema()),
			blockID(),
		),
		schema.Object(
			schema.Required("type", schema.Literal(TypeContext)),
			schema.Required("elements", schema.Array(
				schema.Union("type", "context element type", TextObjectSchema(), imageElementSchema()), "")),
			blockID(),
		),
		schema.Object(
			schema.Required("type", schema.Literal(TypeActions)),
			schema.Required("elements", schema.Array(schema.Any(""), "")),
			blockID(),
		),
	)
}

// BlocksSchema describes a layout document of at most MaxBlocks blocks.
func BlocksSchema(description string) *schema.Node {
	return schema.Array(BlockSchema(), description).Max(MaxBlocks)
}
