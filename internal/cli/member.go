package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/existflow/memberbooth/internal/directory"
	"github.com/existflow/memberbooth/internal/model"
)

var memberCmd = &cobra.Command{
	Use:   "member <member number>",
	Short: "Show what the member directory knows about a member",
	Args:  cobra.ExactArgs(1),
	RunE:  runMember,
}

func runMember(cmd *cobra.Command, args []string) error {
	number, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid member number %q", args[0])
	}

	b, err := openBackends(cmd.Context())
	if err != nil {
		return err
	}
	defer b.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()
	member, err := b.directory.MemberByNumber(ctx, number)
	if err != nil {
		if directory.Classify(err) == directory.LookupNotFound {
			return fmt.Errorf("no member with number %d", number)
		}
		return err
	}

	printMember(os.Stdout, member)
	return nil
}

func printMember(w io.Writer, m model.Member) {
	fmt.Fprintf(w, "#%d %s\n", m.Number, m.Name())
	fmt.Fprintf(w, "  Membership:          %s\n", m.Membership.Format())
	fmt.Fprintf(w, "  Lab access:          %s\n", m.LabAccess.Format())
	fmt.Fprintf(w, "  Special lab access:  %s\n", m.SpecialLabAccess.Format())
	fmt.Fprintf(w, "  Effective lab access: %s\n", m.EffectiveLabAccess.Format())
}
