package cli

import (
	"bytes"
	"context"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/existflow/memberbooth/internal/config"
	"github.com/existflow/memberbooth/internal/directory/devstore"
	"github.com/existflow/memberbooth/internal/kiosk"
	"github.com/existflow/memberbooth/internal/model"
	"github.com/existflow/memberbooth/internal/printer"
)

func newJob(t *testing.T, kind model.Kind) (*labelJob, *devstore.Store) {
	t.Helper()
	cfg = config.DefaultConfig()
	cfg.OutputDir = t.TempDir()

	store, err := devstore.Open(filepath.Join(t.TempDir(), "dev.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	store.PinCost = bcrypt.MinCost
	require.NoError(t, store.Seed(context.Background()))

	factory, err := newFactory()
	require.NoError(t, err)
	return &labelJob{
		kind:      kind,
		opts:      kiosk.LabelOptions(cfg, kind),
		directory: store,
		factory:   factory,
	}, store
}

func TestPrintSavesWithoutPrinter(t *testing.T) {
	job, store := newJob(t, model.KindBox)

	var out bytes.Buffer
	require.NoError(t, job.print(context.Background(), &out, devstore.MockMemberNumber))
	assert.Contains(t, out.String(), "Firstname Lastname")
	assert.Contains(t, out.String(), "✅ Saved "+filepath.Join(cfg.OutputDir, "9999_box_"))

	files, err := os.ReadDir(cfg.OutputDir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.True(t, strings.HasPrefix(files[0].Name(), "9999_box_"))

	ids, err := store.LabelsFor(context.Background(), devstore.MockMemberNumber)
	require.NoError(t, err)
	assert.Len(t, ids, 1)
}

func TestPrintSendsImageToPrinter(t *testing.T) {
	job, _ := newJob(t, model.KindTemporary)
	job.opts.Description = "Lasercut parts"
	var printed int
	job.printer = printer.PrinterFunc(func(_ context.Context, img image.Image) (printer.Result, error) {
		printed++
		assert.Positive(t, img.Bounds().Dy())
		return printer.Result{DidPrint: true}, nil
	})

	var out bytes.Buffer
	require.NoError(t, job.print(context.Background(), &out, devstore.MockMemberNumber))
	assert.Equal(t, 1, printed)
	assert.Contains(t, out.String(), "✅ Printed temp label for member #9999")
}

func TestPrintReportsPrinterErrors(t *testing.T) {
	job, _ := newJob(t, model.KindBox)
	job.printer = printer.PrinterFunc(func(context.Context, image.Image) (printer.Result, error) {
		return printer.Result{State: printer.Status{Errors: []string{"No media"}}}, nil
	})

	err := job.print(context.Background(), io.Discard, devstore.MockMemberNumber)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No media")
}

func TestInteractivePrint(t *testing.T) {
	job, store := newJob(t, model.KindMeetup)

	var out bytes.Buffer
	in := strings.NewReader("abc\n1234\n9999\nq\n9999\n")
	require.NoError(t, job.interactive(context.Background(), in, &out))

	assert.Contains(t, out.String(), "Not a member number: abc")
	assert.Contains(t, out.String(), "member #1234")
	assert.Contains(t, out.String(), "✅ Saved ")

	ids, err := store.LabelsFor(context.Background(), devstore.MockMemberNumber)
	require.NoError(t, err)
	assert.Len(t, ids, 1, "input after q is ignored")
}

func TestInteractiveStopsAtEOF(t *testing.T) {
	job, _ := newJob(t, model.KindBox)
	var out bytes.Buffer
	require.NoError(t, job.interactive(context.Background(), strings.NewReader(""), &out))
	assert.Equal(t, "Member number (q to quit): ", out.String())
}

func TestPrintMember(t *testing.T) {
	var out bytes.Buffer
	printMember(&out, devstore.MockMember())
	assert.Contains(t, out.String(), "#9999 Firstname Lastname")
	assert.Contains(t, out.String(), "Effective lab access:")
}
