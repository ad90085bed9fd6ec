package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/example/easyfs/pkg/client"
	"github.com/example/easyfs/pkg/fs"
)

const chunkSize = 64 * 1024

var errUsage = errors.New("wrong number of arguments")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newApp().RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "efsctl",
		Usage: "talk to an easy-fs file server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Aliases: []string{"s"},
				Value:   "localhost:7070",
				Usage:   "address of the file server",
				EnvVars: []string{"EFS_SERVER"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "ls",
				Usage: "list the root directory",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "links", Aliases: []string{"l"}, Usage: "also print the hard link table"},
					&cli.BoolFlag{Name: "all", Aliases: []string{"a"}, Usage: "show deleted slots"},
				},
				Action: withClient(ls),
			},
			{
				Name:      "cat",
				Usage:     "print a file",
				ArgsUsage: "NAME",
				Action:    withClient(cat),
			},
			{
				Name:      "put",
				Usage:     "write a local file, or stdin, into the image",
				ArgsUsage: "NAME [LOCAL]",
				Action:    withClient(put),
			},
			{
				Name:      "link",
				Usage:     "add a hard link",
				ArgsUsage: "OLD NEW",
				Action:    withClient(link),
			},
			{
				Name:      "unlink",
				Usage:     "remove a name",
				ArgsUsage: "NAME",
				Action:    withClient(unlink),
			},
			{
				Name:      "stat",
				Usage:     "print inode information for a file",
				ArgsUsage: "NAME",
				Action:    withClient(stat),
			},
			{
				Name:   "df",
				Usage:  "print image usage",
				Action: withClient(df),
			},
		},
	}
}

func withClient(fn func(*cli.Context, *client.Client) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		config := client.DefaultConfig()
		config.ServerAddress = c.String("server")
		efs, err := client.NewClient(c.Context, config)
		if err != nil {
			return fmt.Errorf("connecting to %s: %w", config.ServerAddress, err)
		}
		defer efs.Close()
		return fn(c, efs)
	}
}

func args(c *cli.Context, lo, hi int) ([]string, error) {
	if c.NArg() < lo || c.NArg() > hi {
		return nil, fmt.Errorf("%s: %w (usage: %s %s)", c.Command.Name, errUsage, c.Command.Name, c.Command.ArgsUsage)
	}
	return c.Args().Slice(), nil
}

func ls(c *cli.Context, efs *client.Client) error {
	names, links, err := efs.List(c.Context)
	if err != nil {
		return err
	}
	w := c.App.Writer
	for _, name := range names {
		if name == "" {
			if c.Bool("all") {
				fmt.Fprintln(w, "<deleted>")
			}
			continue
		}
		fmt.Fprintln(w, name)
	}
	if c.Bool("links") {
		for _, l := range links {
			fmt.Fprintf(w, "inode %d: %d links\n", l.InodeID, l.Count)
		}
	}
	return nil
}

func cat(c *cli.Context, efs *client.Client) error {
	a, err := args(c, 1, 1)
	if err != nil {
		return err
	}
	data, err := efs.ReadFile(c.Context, a[0], chunkSize)
	if err != nil {
		return err
	}
	_, err = c.App.Writer.Write(data)
	return err
}

func put(c *cli.Context, efs *client.Client) error {
	a, err := args(c, 1, 2)
	if err != nil {
		return err
	}
	var data []byte
	if len(a) == 2 {
		data, err = os.ReadFile(a[1])
	} else {
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return err
	}
	return efs.WriteFile(c.Context, a[0], data, chunkSize)
}

func link(c *cli.Context, efs *client.Client) error {
	a, err := args(c, 2, 2)
	if err != nil {
		return err
	}
	return efs.Link(c.Context, a[0], a[1])
}

func unlink(c *cli.Context, efs *client.Client) error {
	a, err := args(c, 1, 1)
	if err != nil {
		return err
	}
	return efs.Unlink(c.Context, a[0])
}

func stat(c *cli.Context, efs *client.Client) error {
	a, err := args(c, 1, 1)
	if err != nil {
		return err
	}
	fd, err := efs.Open(c.Context, a[0], fs.RDONLY)
	if err != nil {
		return err
	}
	defer efs.CloseFD(c.Context, fd)

	st, err := efs.Fstat(c.Context, fd)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "name:  %s\ninode: %d\nmode:  %s\nlinks: %d\n", a[0], st.Ino, st.Mode, st.Nlink)
	return nil
}

func df(c *cli.Context, efs *client.Client) error {
	st, err := efs.StatFS(c.Context)
	if err != nil {
		return err
	}
	w := c.App.Writer
	fmt.Fprintf(w, "block size:  %d\n", st.BlockSize)
	fmt.Fprintf(w, "blocks:      %d total, %d data, %d free\n", st.TotalBlocks, st.DataBlocks, st.FreeBlocks)
	fmt.Fprintf(w, "inodes:      %d total, %d free\n", st.TotalFiles, st.FreeFiles)
	fmt.Fprintf(w, "name limit:  %d\n", st.NameMaxLength)
	return nil
}
