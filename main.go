package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"fastbuf/config"
	"fastbuf/resp"
	"fastbuf/tcp"
	"fastbuf/util/buffer"
	"fastbuf/util/log"

	"github.com/spf13/pflag"
)

var banner = `
  __           _   _            __
 / _| __ _ ___| |_| |__  _   _ / _|
| |_ / _' / __| __| '_ \| | | | |_
|  _| (_| \__ \ |_| |_) | |_| |  _|
|_|  \__,_|___/\__|_.__/ \__,_|_|
                       v1.0-SNAPSHOT`

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	var configFile string
	flagSet := pflag.NewFlagSet("fastbuf", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVarP(&configFile, "config", "c", "", "yaml or key-value config file")
	mode := flagSet.String("mode", config.ModePipe, "pipe: copy stdin to stdout, resp: answer RESP commands on stdin")
	capacity := flagSet.Int("capacity", 0, "read and write buffer capacity in bytes")
	storage := flagSet.String("storage", config.StorageHeap, "buffer storage: heap, pool or mmap")
	zeroed := flagSet.Bool("zeroed", false, "zero buffer storage on allocation")
	logLevel := flagSet.String("log-level", "info", "info, warn, error or debug")
	quiet := flagSet.BoolP("quiet", "q", false, "do not print the banner")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if flagSet.NArg() > 0 {
		return fmt.Errorf("unexpected argument: %s", flagSet.Arg(0))
	}

	if configFile != "" {
		if err := config.LoadConfigs(configFile); err != nil {
			return err
		}
	}
	props := *config.Properties
	// flags given on the command line win over the config file
	if flagSet.Changed("mode") {
		props.Mode = *mode
	}
	if flagSet.Changed("capacity") {
		props.ReadCapacity = *capacity
		props.WriteCapacity = *capacity
	}
	if flagSet.Changed("storage") {
		props.Storage = *storage
	}
	if flagSet.Changed("zeroed") {
		props.Zeroed = *zeroed
	}
	if flagSet.Changed("log-level") {
		props.LogLevel = *logLevel
	}
	if err := props.Validate(); err != nil {
		return err
	}

	level, _ := log.ParseLevel(props.LogLevel)
	// stdout carries data, logs go to stderr
	log.SetOutput(stderr)
	log.SetLevel(level)
	if !*quiet {
		fmt.Fprintln(stderr, banner)
	}
	log.Info("mode %s, storage %s, read capacity %d, write capacity %d",
		props.Mode, props.Storage, props.ReadCapacity, props.WriteCapacity)

	alloc := props.Allocator()
	if slabs, ok := alloc.(*buffer.SlabPool); ok {
		defer func() {
			log.Debug("slab pool: %d of %d slabs created, %d idle", slabs.Created(), slabs.MaxSlabs(), slabs.Idle())
		}()
	}
	switch props.Mode {
	case config.ModeResp:
		return serve(&props, alloc, stdin, stdout)
	default:
		return pipe(&props, alloc, stdin, stdout)
	}
}

// pipe copies src to dst through a single buffer.
func pipe(props *config.BufferProperties, alloc buffer.Allocator, src io.Reader, dst io.Writer) error {
	buf, err := props.NewBuffer(alloc, props.ReadCapacity)
	if err != nil {
		return err
	}
	defer buf.Release()
	if buf.Cap() == 0 {
		return buffer.ErrInvalidCapacity
	}

	var total int64
	for {
		_, err := buf.FillFrom(src)
		if err != nil && !errors.Is(err, buffer.ErrSourceExhausted) {
			return err
		}
		exhausted := err != nil
		n, werr := buf.WriteTo(dst)
		total += n
		if werr != nil {
			return werr
		}
		buf.Clear()
		if exhausted {
			log.Debug("copied %d bytes", total)
			return nil
		}
	}
}

// serve answers RESP commands read from in until in is exhausted.
func serve(props *config.BufferProperties, alloc buffer.Allocator, in io.Reader, out io.Writer) error {
	stream := struct {
		io.Reader
		io.Writer
	}{in, out}
	conn, err := tcp.NewConnection(stream, alloc, props.ReadCapacity, props.WriteCapacity)
	if err != nil {
		return err
	}
	defer conn.Close()

	for {
		cmd, err := conn.ReadCommand()
		if err != nil {
			if err == io.EOF {
				log.Debug("served %d commands", conn.Frames())
				return conn.Flush()
			}
			if errors.Is(err, resp.ErrProtocol) {
				if serr := conn.SendCommand(resp.NewErrorf("ERR %v", err)); serr != nil {
					log.Errorf("send protocol error reply: %v", serr)
				} else if ferr := conn.Flush(); ferr != nil {
					log.Errorf("send protocol error reply: %v", ferr)
				}
			}
			return err
		}
		if err := conn.SendCommand(execute(cmd)); err != nil {
			return err
		}
		// replies to pipelined commands go out together
		if conn.Buffered() == 0 {
			if err := conn.Flush(); err != nil {
				return err
			}
		}
	}
}

func execute(cmd *resp.RespCommand) *resp.RespCommand {
	args := cmd.Args()
	switch cmd.Name() {
	case "ping":
		switch len(args) {
		case 0:
			return resp.PongCommand
		case 1:
			return resp.NewBulkStringCommand(args[0])
		}
	case "echo":
		if len(args) == 1 {
			return resp.NewBulkStringCommand(args[0])
		}
	default:
		return resp.NewErrorf("ERR unknown command '%s'", cmd.Name())
	}
	return resp.NewErrorf("ERR wrong number of arguments for '%s' command", cmd.Name())
}
