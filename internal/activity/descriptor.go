package activity

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// MaxDescriptorLength bounds stored descriptors, in runes.
const MaxDescriptorLength = 255

// MaxCauseLength bounds stored named causes, in runes.
const MaxCauseLength = 64

// NormalizeDescriptor replaces invalid UTF-8, NFC-normalizes s, trims
// surrounding space and truncates it to MaxDescriptorLength runes.
func NormalizeDescriptor(s string) string {
	return truncateRunes(strings.TrimSpace(norm.NFC.String(ValidText(s))), MaxDescriptorLength)
}

// NormalizeCauseName applies the descriptor rules with the cause bound.
func NormalizeCauseName(s string) string {
	return truncateRunes(strings.TrimSpace(norm.NFC.String(ValidText(s))), MaxCauseLength)
}

// ValidText replaces every invalid UTF-8 sequence in s with U+FFFD.
func ValidText(s string) string {
	return strings.ToValidUTF8(s, "\uFFFD")
}

// Sanitized returns a copy of a whose text fields are valid UTF-8.
// Metadata is left alone; its JSON encoding already replaces bad bytes.
func (a *Activity) Sanitized() *Activity {
	c := *a
	c.Action = ValidText(a.Action)
	c.World.Name = ValidText(a.World.Name)
	c.Descriptor = ValidText(a.Descriptor)
	if a.Item != nil {
		c.Item = &Item{Material: ValidText(a.Item.Material), Data: ValidText(a.Item.Data)}
	}
	c.Block = a.Block.sanitized()
	c.ReplacedBlock = a.ReplacedBlock.sanitized()
	if a.EntityType != nil {
		e := EntityType{Type: ValidText(a.EntityType.Type), TranslationKey: ValidText(a.EntityType.TranslationKey)}
		c.EntityType = &e
	}
	if a.Player != nil {
		c.Player = &Player{UUID: a.Player.UUID, Name: ValidText(a.Player.Name)}
	}
	if a.CustomData != nil {
		c.CustomData = &CustomData{Version: a.CustomData.Version, Data: ValidText(a.CustomData.Data)}
	}
	c.Cause = sanitizedCause(Normalize(a.Cause))
	return &c
}

func (b *Block) sanitized() *Block {
	if b == nil {
		return nil
	}
	return &Block{
		Namespace:      ValidText(b.Namespace),
		Name:           ValidText(b.Name),
		Data:           ValidText(b.Data),
		TranslationKey: ValidText(b.TranslationKey),
	}
}

func sanitizedCause(c Cause) Cause {
	switch v := c.(type) {
	case NamedCause:
		return NamedCause{Name: ValidText(v.Name)}
	case PlayerCause:
		return PlayerCause{UUID: v.UUID, Name: ValidText(v.Name)}
	case EntityCause:
		return EntityCause{Type: ValidText(v.Type), TranslationKey: ValidText(v.TranslationKey)}
	case BlockCause:
		return BlockCause{
			Namespace:      ValidText(v.Namespace),
			Name:           ValidText(v.Name),
			Data:           ValidText(v.Data),
			TranslationKey: ValidText(v.TranslationKey),
		}
	}
	return c
}

func truncateRunes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}
