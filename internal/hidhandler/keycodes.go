package hidhandler

// USB-HID Usage Page 0x07 keyboard usage codes, the subset needed to map
// ASCII text typed through TypeText.
const (
	keyA = 0x04
	keyB = 0x05
	keyC = 0x06
	keyD = 0x07
	keyE = 0x08
	keyF = 0x09
	keyG = 0x0A
	keyH = 0x0B
	keyI = 0x0C
	keyJ = 0x0D
	keyK = 0x0E
	keyL = 0x0F
	keyM = 0x10
	keyN = 0x11
	keyO = 0x12
	keyP = 0x13
	keyQ = 0x14
	keyR = 0x15
	keyS = 0x16
	keyT = 0x17
	keyU = 0x18
	keyV = 0x19
	keyW = 0x1A
	keyX = 0x1B
	keyY = 0x1C
	keyZ = 0x1D

	key1 = 0x1E
	key2 = 0x1F
	key3 = 0x20
	key4 = 0x21
	key5 = 0x22
	key6 = 0x23
	key7 = 0x24
	key8 = 0x25
	key9 = 0x26
	key0 = 0x27

	keyEnter      = 0x28
	keyTab        = 0x2B
	keySpace      = 0x2C
	keyMinus      = 0x2D
	keyEqual      = 0x2E
	keyLeftBrace  = 0x2F
	keyRightBrace = 0x30
	keyBackslash  = 0x31
	keySemicolon  = 0x33
	keyApostrophe = 0x34
	keyGrave      = 0x35
	keyComma      = 0x36
	keyPeriod     = 0x37
	keySlash      = 0x38
)

// charToKey maps an ASCII byte to its HID keycode. Unsupported characters
// map to 0, meaning "no key".
var charToKey = map[byte]uint8{
	'a': keyA, 'b': keyB, 'c': keyC, 'd': keyD, 'e': keyE, 'f': keyF, 'g': keyG,
	'h': keyH, 'i': keyI, 'j': keyJ, 'k': keyK, 'l': keyL, 'm': keyM, 'n': keyN,
	'o': keyO, 'p': keyP, 'q': keyQ, 'r': keyR, 's': keyS, 't': keyT, 'u': keyU,
	'v': keyV, 'w': keyW, 'x': keyX, 'y': keyY, 'z': keyZ,

	'A': keyA, 'B': keyB, 'C': keyC, 'D': keyD, 'E': keyE, 'F': keyF, 'G': keyG,
	'H': keyH, 'I': keyI, 'J': keyJ, 'K': keyK, 'L': keyL, 'M': keyM, 'N': keyN,
	'O': keyO, 'P': keyP, 'Q': keyQ, 'R': keyR, 'S': keyS, 'T': keyT, 'U': keyU,
	'V': keyV, 'W': keyW, 'X': keyX, 'Y': keyY, 'Z': keyZ,

	'1': key1, '2': key2, '3': key3, '4': key4, '5': key5,
	'6': key6, '7': key7, '8': key8, '9': key9, '0': key0,

	'!': key1, '@': key2, '#': key3, '$': key4, '%': key5,
	'^': key6, '&': key7, '*': key8, '(': key9, ')': key0,

	'-': keyMinus, '=': keyEqual, '[': keyLeftBrace, ']': keyRightBrace,
	'\\': keyBackslash, ';': keySemicolon, '\'': keyApostrophe, '`': keyGrave,
	',': keyComma, '.': keyPeriod, '/': keySlash,

	'_': keyMinus, '+': keyEqual, '{': keyLeftBrace, '}': keyRightBrace,
	'|': keyBackslash, ':': keySemicolon, '"': keyApostrophe, '~': keyGrave,
	'<': keyComma, '>': keyPeriod, '?': keySlash,

	' ': keySpace, '\n': keyEnter, '\r': keyEnter, '\t': keyTab,
}

// shiftChars is the set of ASCII characters that require the Shift modifier.
var shiftChars = map[byte]bool{
	'A': true, 'B': true, 'C': true, 'D': true, 'E': true, 'F': true, 'G': true,
	'H': true, 'I': true, 'J': true, 'K': true, 'L': true, 'M': true, 'N': true,
	'O': true, 'P': true, 'Q': true, 'R': true, 'S': true, 'T': true, 'U': true,
	'V': true, 'W': true, 'X': true, 'Y': true, 'Z': true,

	'!': true, '@': true, '#': true, '$': true, '%': true,
	'^': true, '&': true, '*': true, '(': true, ')': true,

	'_': true, '+': true, '{': true, '}': true, '|': true,
	':': true, '"': true, '~': true, '<': true, '>': true, '?': true,
}

// asciiToKeycode returns the HID keycode and required modifier byte for an
// ASCII character, or ok=false if the character has no mapping.
func asciiToKeycode(c byte) (code, mods uint8, ok bool) {
	code, found := charToKey[c]
	if !found {
		return 0, 0, false
	}
	if shiftChars[c] {
		mods = modLeftShift
	}
	return code, mods, true
}
