package main

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/bodgit/blurhash"
	"github.com/bodgit/blurhash/catalog"
	"github.com/urfave/cli/v2"
)

const defaultDB = "blurhash.db"

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func newLogger(c *cli.Context) *log.Logger {
	logger := log.New(io.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
	}
	return logger
}

func openCatalog(c *cli.Context, logger *log.Logger) (*catalog.Catalog, *catalog.DB, error) {
	db, err := catalog.NewDB(c.String("db"))
	if err != nil {
		return nil, nil, err
	}
	return catalog.New(db, logger), db, nil
}

func writePNG(file string, m image.Image) error {
	f, err := os.Create(file)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := png.Encode(f, m); err != nil {
		return err
	}

	return f.Close()
}

func decode(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	logger := newLogger(c)

	cat, db, err := openCatalog(c, logger)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer db.Close()

	s := blurhash.NewService(cat, 1, logger)
	defer s.Close()

	ctx := context.Background()
	pb, err := s.Submit(ctx, blurhash.Request{
		Hash:   c.Args().First(),
		Width:  c.Int("width"),
		Height: c.Int("height"),
		Punch:  c.Float64("punch"),
	}).Wait(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	var m image.Image = pb
	if n := c.Int("colors"); n > 0 {
		m = pb.Paletted(n)
	}

	if err := writePNG(c.String("output"), m); err != nil {
		return cli.NewExitError(err, 1)
	}

	return nil
}

func encode(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	f, err := os.Open(c.Args().First())
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer f.Close()

	m, _, err := image.Decode(f)
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	hash, err := blurhash.Encode(c.Int("x"), c.Int("y"), m)
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	fmt.Println(hash)

	return nil
}

func components(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	x, y, err := blurhash.Components(c.Args().First())
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	avg, err := blurhash.AverageColor(c.Args().First())
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	fmt.Printf("%dx%d #%02x%02x%02x\n", x, y, avg.R, avg.G, avg.B)

	return nil
}

func scan(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	cat, db, err := openCatalog(c, newLogger(c))
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer db.Close()

	if err := cat.Scan(context.Background(), c.Args().First(), c.Int("x"), c.Int("y"), c.Int("workers")); err != nil {
		return cli.NewExitError(err, 1)
	}

	return nil
}

func lookup(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	cat, db, err := openCatalog(c, newLogger(c))
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer db.Close()

	m, err := cat.Lookup(context.Background(), c.Args().First())
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	if m == nil {
		return cli.NewExitError(fmt.Sprintf("no match for \"%s\"", c.Args().First()), 1)
	}

	fmt.Println(m.Hash)

	return nil
}

func main() {
	app := cli.NewApp()

	app.Name = "blurhash"
	app.Usage = "blurhash placeholder utility"
	app.Version = "1.0.0"

	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}

	componentFlags := []cli.Flag{
		&cli.IntFlag{
			Name:  "x",
			Value: 4,
			Usage: "horizontal components",
		},
		&cli.IntFlag{
			Name:  "y",
			Value: 3,
			Usage: "vertical components",
		},
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"BLURHASH_DB"},
			Value:   filepath.Join(cwd, defaultDB),
			Usage:   "path to database",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:      "decode",
			Usage:     "Render a blurhash to a PNG",
			ArgsUsage: "HASH",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  "width",
					Value: 32,
					Usage: "output width",
				},
				&cli.IntFlag{
					Name:  "height",
					Value: 32,
					Usage: "output height",
				},
				&cli.Float64Flag{
					Name:  "punch",
					Value: 1,
					Usage: "contrast adjustment",
				},
				&cli.IntFlag{
					Name:  "colors",
					Usage: "reduce to a palette of this many colors",
				},
				&cli.StringFlag{
					Name:    "output",
					Aliases: []string{"o"},
					Value:   "blurhash.png",
					Usage:   "output file",
				},
			},
			Action: decode,
		},
		{
			Name:      "encode",
			Usage:     "Compute the blurhash of an image",
			ArgsUsage: "FILE",
			Flags:     componentFlags,
			Action:    encode,
		},
		{
			Name:      "components",
			Usage:     "Show the components and average color of a blurhash",
			ArgsUsage: "HASH",
			Action:    components,
		},
		{
			Name:      "scan",
			Usage:     "Scan filesystem and index images",
			ArgsUsage: "DIRECTORY",
			Flags: append(componentFlags, &cli.IntFlag{
				Name:  "workers",
				Value: 10,
				Usage: "number of concurrent encoders",
			}),
			Action: scan,
		},
		{
			Name:      "lookup",
			Usage:     "Print the indexed blurhash of an image",
			ArgsUsage: "FILE",
			Action:    lookup,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
