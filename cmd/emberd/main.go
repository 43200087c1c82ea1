// Command emberd is Ember's example composition root: it wires a static
// file route, a websocket echo route, and the out-of-core FTP protocol
// slot into one running dispatcher. Grounded on
// original_source/example/ember_config.c's route table and the teacher's
// example mains (flag-parsed port, signal-driven shutdown).
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/hashicorp/go-hclog"

	"github.com/turnerm/ember/ember"
	exftp "github.com/turnerm/ember/examples/ftp"
	"github.com/turnerm/ember/examples/static"
	"github.com/turnerm/ember/httpproto"
	"github.com/turnerm/ember/route"
	"github.com/turnerm/ember/transport"
	"github.com/turnerm/ember/upgrade"
	"github.com/turnerm/ember/wsproto"
)

func main() {
	httpPort := flag.Int("http-port", 8080, "HTTP listen port")
	ftpPort := flag.Int("ftp-port", 2121, "FTP stub listen port")
	webroot := flag.String("webroot", ".", "static file root")
	flag.Parse()

	log := hclog.New(&hclog.LoggerOptions{Name: "emberd", Level: hclog.Info})

	blobs := static.Source{Root: *webroot}
	routes := route.Table[httpproto.Handler]{
		Delims: "/",
		Items: []route.Item[httpproto.Handler]{
			{Parts: []string{""}, Options: route.IgnoreTrailingSlash, Handler: indexHandler},
			{Parts: []string{"ws"}, Handler: wsUpgradeHandler},
			{Parts: []string{"static", "%"}, Options: route.AllowWildcards, Handler: staticHandler(blobs)},
		},
	}

	httpCfg := &httpproto.Config{
		Routes:        routes,
		Delims:        "/",
		MaxRouteParts: 8,
		MaxParamParts: 8,
		MaxHeaders:    16,
		FileChunkSize: 4096,
		Blobs:         blobs,
		Logger:        log.Named("http"),
	}

	protocols := []ember.Protocol{
		{
			Name:    "http",
			Port:    *httpPort,
			Backlog: 32,
			NewClient: func(conn transport.Conn) ember.Client {
				return httpproto.NewClient(conn, httpCfg)
			},
		},
		exftp.Protocol(*ftpPort),
	}

	cfg := ember.DefaultConfig(protocols...)
	cfg.Logger = log
	srv := ember.New(cfg)

	banner := color.New(color.FgGreen, color.Bold)
	banner.Println("ember")
	for _, p := range protocols {
		fmt.Printf("  %-6s :%d\n", p.Name, p.Port)
	}

	if err := srv.Init(); err != nil {
		log.Error("startup failed", "error", err)
		os.Exit(1)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down")
	srv.DeInit()
}

func indexHandler(c *httpproto.Client) (int, error) {
	body := []byte("ember is running\n")
	n, err := c.SendResponseHeaders(httpproto.StatusOK, httpproto.ResponseOptions{ContentLength: true}, len(body), "text/plain", "")
	if err != nil {
		return n, err
	}
	n2, err := c.SendResponseContent(body)
	return n + n2, err
}

func staticHandler(blobs static.Source) httpproto.Handler {
	return func(c *httpproto.Client) (int, error) {
		path := httpproto.PrintRoute(c.RouteParts()[1:])
		blob, err := blobs.Open(path)
		if err != nil {
			return httpproto.DefaultErrorHandler(c, httpproto.StatusNotFound)
		}
		n, err := c.SendResponseHeaders(httpproto.StatusOK, httpproto.ResponseOptions{ContentLength: true}, int(blob.Size()), httpproto.ContentType(path), "")
		if err != nil {
			blob.Close()
			return n, err
		}
		n2, err := c.SendResponseFile(blob)
		return n + n2, err
	}
}

func wsUpgradeHandler(c *httpproto.Client) (int, error) {
	return upgrade.Do(c, "ws", wsEcho, wsEcho)
}

func wsEcho(c *wsproto.Client) (int, error) {
	switch c.Opcode() {
	case wsproto.OpText:
		return c.SendTextMessage(c.Payload())
	case wsproto.OpBinary:
		return c.SendBinaryMessage(c.Payload())
	}
	return 0, nil
}
