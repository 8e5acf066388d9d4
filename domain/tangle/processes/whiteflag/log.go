package whiteflag

import (
	"github.com/iotaledger/bee-sub004/infrastructure/logger"
)

var log = logger.RegisterSubSystem("WFLG")
