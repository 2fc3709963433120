package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/existflow/memberbooth/internal/directory"
	"github.com/existflow/memberbooth/internal/kiosk"
	"github.com/existflow/memberbooth/internal/labels"
	"github.com/existflow/memberbooth/internal/logger"
	"github.com/existflow/memberbooth/internal/model"
	"github.com/existflow/memberbooth/internal/printer"
)

var printCmd = &cobra.Command{
	Use:   "print [member numbers...]",
	Short: "Print labels from the command line",
	Long: `Print a label for every member number given. Without member numbers the
command asks for one member at a time until you enter 'q'.

With --no-printer the labels are saved as PNG files and opened in the image
viewer instead.`,
	RunE: runPrint,
}

func init() {
	printCmd.Flags().StringP("kind", "k", string(model.KindBox), "Label kind (box, temp, fire, 3d, name, meetup, drying, rotating, warning)")
	printCmd.Flags().StringP("description", "d", "", "Description for temp, rotating and warning labels")
	printCmd.Flags().Int("drying-hours", 0, "Drying time for drying labels (default from config)")
	printCmd.Flags().Bool("no-preview", false, "Do not open saved labels in the image viewer")
}

// labelJob is one print command invocation's label settings.
type labelJob struct {
	kind    model.Kind
	opts    model.Options
	preview bool

	directory directory.Directory
	factory   *labels.Factory
	printer   printer.Printer
}

func runPrint(cmd *cobra.Command, args []string) error {
	kindName, _ := cmd.Flags().GetString("kind")
	kind, err := model.ParseKind(kindName)
	if err != nil {
		return err
	}

	job := &labelJob{kind: kind, opts: kiosk.LabelOptions(cfg, kind)}
	job.opts.Description, _ = cmd.Flags().GetString("description")
	if cmd.Flags().Changed("drying-hours") {
		job.opts.DryingHours, _ = cmd.Flags().GetInt("drying-hours")
		if job.opts.DryingHours < 1 || job.opts.DryingHours > kiosk.MaxDryingHours {
			return fmt.Errorf("drying hours must be between 1 and %d", kiosk.MaxDryingHours)
		}
	}
	noPreview, _ := cmd.Flags().GetBool("no-preview")
	job.preview = !noPreview

	b, err := openBackends(cmd.Context())
	if err != nil {
		return err
	}
	defer b.Close()
	job.directory = b.directory

	if job.factory, err = newFactory(); err != nil {
		return err
	}
	if !cfg.NoPrinter {
		job.printer = newPrinter()
	}

	if len(args) > 0 {
		for _, arg := range args {
			number, err := strconv.Atoi(arg)
			if err != nil {
				return fmt.Errorf("invalid member number %q", arg)
			}
			if err := job.print(cmd.Context(), os.Stdout, number); err != nil {
				return err
			}
		}
		return nil
	}
	return job.interactive(cmd.Context(), os.Stdin, os.Stdout)
}

// interactive prints one label per member number read from in until "q"
// or end of input.
func (j *labelJob) interactive(ctx context.Context, in io.Reader, out io.Writer) error {
	reader := bufio.NewReader(in)
	for {
		fmt.Fprint(out, "Member number (q to quit): ")
		line, err := reader.ReadString('\n')
		line = strings.TrimSpace(line)
		if line == "q" || (line == "" && err != nil) {
			return nil
		}
		if line != "" {
			if number, convErr := strconv.Atoi(line); convErr != nil {
				fmt.Fprintf(out, "❌ Not a member number: %s\n", line)
			} else if printErr := j.print(ctx, out, number); printErr != nil {
				fmt.Fprintf(out, "❌ %v\n", printErr)
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

// print registers and prints one label for member number, reporting
// progress to out.
func (j *labelJob) print(ctx context.Context, out io.Writer, number int) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	member, err := j.directory.MemberByNumber(ctx, number)
	if err != nil {
		return fmt.Errorf("member #%d: %w", number, err)
	}
	fmt.Fprintln(out, member)

	now := time.Now()
	label, err := model.NewLabel(j.kind, member, j.opts, now)
	if err != nil {
		return err
	}
	uploaded, err := j.directory.UploadLabel(ctx, label)
	if err != nil {
		return fmt.Errorf("failed to upload label: %w", err)
	}
	img, err := j.factory.Create(uploaded, now)
	if err != nil {
		return fmt.Errorf("failed to render label: %w", err)
	}

	if j.printer == nil {
		path := filepath.Join(cfg.OutputDir, fmt.Sprintf("%d_%s_%d.png", number, j.kind, now.Unix()))
		if err := img.Save(path); err != nil {
			return fmt.Errorf("failed to save label: %w", err)
		}
		fmt.Fprintf(out, "✅ Saved %s\n", path)
		if j.preview {
			if err := img.Show(); err != nil {
				logger.Warn("Could not open label preview", logger.Err(err))
			}
		}
		return nil
	}

	result, err := j.printer.Print(ctx, img.Image())
	if err != nil {
		return fmt.Errorf("failed to print label: %w", err)
	}
	if !result.DidPrint {
		return fmt.Errorf("printer reported error: %s", strings.Join(result.State.Errors, ", "))
	}
	logger.Info("Printed label", logger.F("member", number), logger.F("kind", string(j.kind)), logger.F("id", uploaded.Label.Base().ID))
	fmt.Fprintf(out, "✅ Printed %s label for member #%d\n", j.kind, number)
	return nil
}
