// Package rootcmd собирает корневую cobra.Command сервера.
package rootcmd

import (
	"github.com/spf13/cobra"

	migratecmd "github.com/UkralStul/graphql-social-feed/cmd/server/migrate"
	servecmd "github.com/UkralStul/graphql-social-feed/cmd/server/serve"
	"github.com/UkralStul/graphql-social-feed/cmd/server/shared"
)

// New создает корневую команду. Без подкоманды запускается сервер.
func New() *cobra.Command {
	ctx := &shared.Context{}
	serve := servecmd.New(ctx)

	root := &cobra.Command{
		Use:           "server",
		Short:         "GraphQL API социальной ленты: посты, комментарии, реакции и репосты",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.Cmd().RunE,
	}

	root.PersistentFlags().StringVar(
		&ctx.EnvFile, "env-file", ".env",
		"Файл с переменными окружения; отсутствующий файл пропускается",
	)

	root.AddCommand(
		serve.Cmd(),
		migratecmd.New(ctx).Cmd(),
	)

	return root
}
