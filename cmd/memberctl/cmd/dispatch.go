package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/memberdesk/backend/internal/domain"
	"github.com/memberdesk/backend/internal/infrastructure/memstore"
	"github.com/memberdesk/backend/internal/usecase"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var dispatchCmd = &cobra.Command{
	Use:   "dispatch <operation> <json payload>",
	Short: "Run one operation against an in-memory store",
	Long: `Runs an operation such as member.find or command through the
dispatcher over an in-memory store, seeded from --seed when given, and
prints the response envelope.

Example:
  memberctl dispatch --seed data.json command '{"text":"홍길동 주소 부산으로 변경"}'`,
	Args: cobra.ExactArgs(2),
	RunE: runDispatch,
}

func init() {
	rootCmd.AddCommand(dispatchCmd)
}

func runDispatch(cmd *cobra.Command, args []string) error {
	op := usecase.Operation(args[0])

	fields := map[string]interface{}{}
	if err := json.Unmarshal([]byte(args[1]), &fields); err != nil {
		return fmt.Errorf("payload must be a JSON object: %w", err)
	}

	store := memstore.New()
	if seedFile != "" {
		loaded, err := memstore.LoadFile(seedFile)
		if err != nil {
			return err
		}
		store = loaded
	}

	logger := zap.NewNop()
	members := usecase.NewMemberService(store, logger)
	d, err := usecase.NewDispatcher(newParser(), usecase.Services{
		Members:     members,
		Orders:      usecase.NewOrderService(store, members, nil, nil, logger),
		Memos:       usecase.NewMemoService(store, nil, logger),
		Commissions: usecase.NewCommissionService(store, nil, logger),
	}, logger)
	if err != nil {
		return err
	}

	resp := d.Handle(cmd.Context(), op, usecase.Request{Fields: fields})
	if err := printJSON(cmd.OutOrStdout(), resp); err != nil {
		return err
	}
	if resp.Status != domain.StatusSuccess {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: status %d\n", op, resp.HTTPStatus)
	}
	return nil
}
