// Package blockkit models Slack Block Kit layouts as a tagged sum type.
//
// Block variants are section, divider, image, header, context and actions.
// Decoding dispatches on the "type" tag and rejects unknown tags with
// ErrUnknownBlockType. Section accessories and action elements are opaque
// and forwarded untouched.
//
// BlockSchema and BlocksSchema return the matching schema.Node trees used to
// validate tool arguments before any block reaches Slack.
package blockkit
