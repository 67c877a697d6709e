package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

func newUploadCmd(app *App) *cobra.Command {
	var object string
	cmd := &cobra.Command{
		Use:   "upload [url_or_file]",
		Short: "Upload a file to Pipefy storage and print its attachment path",
		Long: `Upload copies a file into Pipefy storage. The source is an http(s) URL,
a local file, or with --object an S3 object given as bucket/key.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if object != "" {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := app.manager(cmd)
			if err != nil {
				return err
			}

			var p string
			switch {
			case object != "":
				bucket, key, ok := strings.Cut(object, "/")
				if !ok || bucket == "" || key == "" {
					return fmt.Errorf("--object must be bucket/key, got %q", object)
				}
				p, err = m.UploadFileFromObject(cmd.Context(), bucket, key)
			case strings.HasPrefix(args[0], "http://") || strings.HasPrefix(args[0], "https://"):
				p, err = m.UploadFileFromURL(cmd.Context(), args[0])
			default:
				data, rerr := os.ReadFile(args[0])
				if rerr != nil {
					return rerr
				}
				p, err = m.UploadFileFromBuffer(cmd.Context(), filepath.Base(args[0]), data)
			}
			if err != nil {
				return err
			}
			if app.asJSON {
				return app.printJSON(map[string]string{"path": p})
			}
			fmt.Fprintln(app.Out, p)
			return nil
		},
	}
	cmd.Flags().StringVar(&object, "object", "", "Upload the S3 object bucket/key")
	return cmd
}
