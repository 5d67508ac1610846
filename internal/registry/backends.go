package registry

import (
	_ "github.com/virtualhid/blehid/internal/platform/linuxble"     // Register BlueZ backend
	_ "github.com/virtualhid/blehid/internal/platform/platformtest" // Register in-memory fake backend
)
