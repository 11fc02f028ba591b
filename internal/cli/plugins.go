package cli

// Bundled service register hooks, enabled through their init() functions.
import (
	_ "github.com/km-arc/go-sofaboot/framework/hooks/logginghook"
	_ "github.com/km-arc/go-sofaboot/framework/hooks/tracinghook"
	_ "github.com/km-arc/go-sofaboot/framework/hooks/validationhook"
)
