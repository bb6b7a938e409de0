package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVariantsImplementCommand(t *testing.T) {
	var cmds = []Command{
		CreateDataflows{},
		DropSources{},
		DropViews{},
		DropSinks{},
		Peek{},
		CancelPeek{},
		Insert{},
		AdvanceTime{},
		AllowCompaction{},
		AppendLog{},
		EnableFeedback{},
		Shutdown{},
	}

	assert.Len(t, cmds, 12)
}
