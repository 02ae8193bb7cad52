package spec

// ReadCharCode decodes one character of the legacy inline text encoding:
// one byte below 0x80, two bytes for lead nibbles 0xC and 0xD, three bytes for
// lead nibble 0xE. limit is the buffer offset where the text run ends; a
// sequence crossing it is reported as partial.
func ReadCharCode(c *Cursor, limit int) (rune, error) {
	start := c.Pos()
	char1, err := c.ReadU8()
	if err != nil {
		return 0, err
	}
	if char1 < 0x80 {
		return rune(char1), nil
	}

	switch char1 >> 4 {
	case 0xC, 0xD:
		if start+2 > limit {
			return 0, &MalformedInputError{Offset: start, Partial: true}
		}
		char2, err := c.ReadU8()
		if err != nil {
			return 0, err
		}
		if char2&0xC0 != 0x80 {
			return 0, &MalformedInputError{Offset: start + 1}
		}
		return rune(char1&0x1F)<<6 | rune(char2&0x3F), nil

	case 0xE:
		if start+3 > limit {
			return 0, &MalformedInputError{Offset: start, Partial: true}
		}
		b, err := c.take(2)
		if err != nil {
			return 0, err
		}
		char2, char3 := b[0], b[1]
		if char2&0xC0 != 0x80 {
			return 0, &MalformedInputError{Offset: start + 1}
		}
		if char3&0xC0 != 0x80 {
			return 0, &MalformedInputError{Offset: start + 2}
		}
		return rune(char1&0x0F)<<12 | rune(char2&0x3F)<<6 | rune(char3&0x3F), nil
	}

	return 0, &MalformedInputError{Offset: start}
}
