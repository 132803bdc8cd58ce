package main

import "github.com/stupid-simple/emlapp/config"

type Command struct {
	MaxArchiveSize config.SizeArgument `help:"maximum archive size to read or write, e.g. 50MB"`

	Build struct {
		Source   string `arg:"" help:"application directory path" type:"existingdir"`
		Output   string `arg:"" help:"archive file path"`
		Prelude  string `help:"launcher script placed before the MIME message" type:"existingfile"`
		Boundary string `help:"fixed multipart boundary token"`
		Name     string `help:"application name, defaults to the directory name"`
		Force    bool   `help:"overwrite the archive if it exists" short:"f"`
		Database string `help:"database path, records the archive when set" short:"d"`
		DryRun   bool   `help:"don't write any files, just print the output"`
	} `cmd:"" help:"Build an archive from an application directory."`
	Extract struct {
		Archive string `arg:"" help:"archive file path" type:"existingfile"`
		Dir     string `arg:"" optional:"" help:"destination directory path, defaults to a new temporary directory"`
	} `cmd:"" help:"Extract the application files of an archive."`
	Run struct {
		Archive string `arg:"" help:"archive file path" type:"existingfile"`
		Port    int    `arg:"" optional:"" default:"8080" help:"host port of the web server"`
	} `cmd:"" help:"Run the application of an archive in a container."`
	Browse struct {
		Archive string `arg:"" help:"archive file path" type:"existingfile"`
	} `cmd:"" help:"Extract an archive and open it in the browser."`
	Info struct {
		Archive string `arg:"" help:"archive file path" type:"existingfile"`
	} `cmd:"" help:"Show the headers and parts of an archive."`
	List struct {
		Database string `help:"database path" short:"d" required:""`
		Limit    int    `help:"maximum number of archives to list"`
		Source   string `help:"only list archives built from source directory path" short:"s"`
		BySize   bool   `help:"order by archive size instead of creation time"`
	} `cmd:"" help:"List recorded archives."`
	Daemon struct {
		Config   string `help:"config file path" short:"c" required:""`
		Database string `help:"database path" short:"d" required:""`
		DryRun   bool   `help:"don't write any files, just print the output"`
	} `cmd:"" help:"Run the archive rebuild service."`
	Help    struct{} `cmd:"" help:"Show usage."`
	Version struct{} `cmd:"" help:"Print version information."`
}
