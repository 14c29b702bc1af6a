package root

import (
	"github.com/zenGate-Global/mealvote/apps/cli/cmd/auth"
	"github.com/zenGate-Global/mealvote/apps/cli/cmd/bootstrap"
	"github.com/zenGate-Global/mealvote/apps/cli/cmd/isoweek"
	"github.com/zenGate-Global/mealvote/apps/cli/cmd/roles"
	"github.com/zenGate-Global/mealvote/apps/cli/cmd/stats"
	tenantcmd "github.com/zenGate-Global/mealvote/apps/cli/cmd/tenant"
)

func init() {
	Root().AddCommand(auth.Command())
	Root().AddCommand(bootstrap.Command())
	Root().AddCommand(tenantcmd.Command())
	Root().AddCommand(roles.Command())
	Root().AddCommand(stats.Command())
	Root().AddCommand(isoweek.Command())
}
