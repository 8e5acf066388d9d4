package tangle

import (
	"github.com/iotaledger/bee-sub004/infrastructure/logger"
	"github.com/iotaledger/bee-sub004/util/panics"
)

var log = logger.RegisterSubSystem("TNGL")
var spawn = panics.GoroutineWrapperFunc(log)
