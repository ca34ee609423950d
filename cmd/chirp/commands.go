package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cnstln/chirp/internal/broadcast"
	"github.com/cnstln/chirp/internal/chirp"
	"github.com/cnstln/chirp/internal/config"
	"github.com/cnstln/chirp/internal/protocol"
	"github.com/cnstln/chirp/internal/server"
	"github.com/cnstln/chirp/internal/tui"
)

// Persistent flags shared by all commands
var (
	groupFlag string
	nameFlag  string
	brdFlag   string
	anyFlag   string
	logLevel  string
)

// identity is the fully resolved node setup: config file values overlaid
// with command line flags.
type identity struct {
	group string
	name  string
	brd   net.IP
	any   net.IP
	cfg   *config.Config
}

// resolveIdentity merges the config file and the persistent flags.
// Flags win; an empty name falls back to the hostname.
func resolveIdentity() (*identity, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	id := &identity{
		group: cfg.Group,
		name:  cfg.Name,
		cfg:   cfg,
	}
	if groupFlag != "" {
		id.group = groupFlag
	}
	if nameFlag != "" {
		id.name = nameFlag
	}
	if id.name == "" {
		hostname, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("cannot determine hostname for node name: %w", err)
		}
		id.name = hostname
	}

	brdAddr := cfg.BroadcastAddr
	if brdFlag != "" {
		brdAddr = brdFlag
	}
	anyAddr := cfg.AnyAddr
	if anyFlag != "" {
		anyAddr = anyFlag
	}

	id.brd = net.ParseIP(brdAddr)
	if id.brd == nil || id.brd.To4() == nil {
		return nil, fmt.Errorf("invalid broadcast address %q", brdAddr)
	}
	id.any = net.ParseIP(anyAddr)
	if id.any == nil || id.any.To4() == nil {
		return nil, fmt.Errorf("invalid bind address %q", anyAddr)
	}

	return id, nil
}

// newManager builds and starts a manager for the resolved identity.
func (id *identity) newManager() (*chirp.Manager, error) {
	manager, err := chirp.NewManager(id.brd, id.any, id.group, id.name)
	if err != nil {
		return nil, err
	}
	manager.Start()
	return manager, nil
}

// parseServiceArg parses a "service:port" flag value, e.g. "control:41234".
func parseServiceArg(arg string) (chirp.RegisteredService, error) {
	name, portStr, ok := strings.Cut(arg, ":")
	if !ok {
		return chirp.RegisteredService{}, fmt.Errorf("invalid service %q (want name:port, e.g. control:41234)", arg)
	}
	serviceID, err := config.ParseService(name)
	if err != nil {
		return chirp.RegisteredService{}, err
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return chirp.RegisteredService{}, fmt.Errorf("invalid port in %q: %w", arg, err)
	}
	return chirp.RegisteredService{Identifier: serviceID, Port: uint16(port)}, nil
}

// Announce command and flags
var (
	serviceFlags []string
	statusAddr   string
)

var announceCmd = &cobra.Command{
	Use:   "announce",
	Short: "Register services and announce them until interrupted",
	Long: `Register this node's services and keep announcing them.

Services come from the config file plus any --service flags. Each
registration broadcasts an OFFER; while running, REQUEST broadcasts from
peers are answered with fresh OFFERs. On Ctrl-C every service is
unregistered with a LEAVING broadcast before the process exits.`,
	Example: `  # Announce the services from the config file
  chirp announce

  # Announce a control channel and a data feed on loopback only
  chirp announce --brd 0.0.0.0 --service control:41234 --service data:5555

  # Announce with the HTTP status server enabled
  chirp announce --service data:5555 --status-addr 127.0.0.1:7180`,
	RunE: runAnnounce,
}

func init() {
	announceCmd.Flags().StringArrayVar(&serviceFlags, "service", nil, "service to register as name:port (repeatable)")
	announceCmd.Flags().StringVar(&statusAddr, "status-addr", "", "enable the HTTP status server on this address")
}

func runAnnounce(cmd *cobra.Command, args []string) error {
	id, err := resolveIdentity()
	if err != nil {
		return err
	}

	// Collect services before touching the network so a bad flag fails fast
	var services []chirp.RegisteredService
	for _, entry := range id.cfg.Services {
		serviceID, err := entry.Identifier()
		if err != nil {
			return err
		}
		services = append(services, chirp.RegisteredService{Identifier: serviceID, Port: entry.Port})
	}
	for _, arg := range serviceFlags {
		service, err := parseServiceArg(arg)
		if err != nil {
			return err
		}
		services = append(services, service)
	}
	if len(services) == 0 {
		return fmt.Errorf("nothing to announce: no services in config and no --service flags")
	}

	manager, err := id.newManager()
	if err != nil {
		return err
	}
	defer manager.Close()

	for _, service := range services {
		manager.RegisterService(service)
	}

	fmt.Printf("Announcing as %q in group %q:\n", id.name, id.group)
	for _, service := range manager.GetRegisteredServices() {
		fmt.Printf("  %s\n", service)
	}

	// Status server: flag wins over config file
	addr := ""
	if id.cfg.Status != nil && id.cfg.Status.Enabled {
		addr = id.cfg.Status.Addr
	}
	if statusAddr != "" {
		addr = statusAddr
	}
	if addr != "" {
		statusServer := server.New(addr, manager)
		if err := statusServer.Start(); err != nil {
			return err
		}
		defer statusServer.Shutdown(context.Background())
		fmt.Printf("Status server on http://%s\n", statusServer.Addr())
	}

	// Block until interrupted; Close broadcasts the LEAVINGs
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	fmt.Println("\nShutting down, sending LEAVING broadcasts...")
	return nil
}

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Dump all CHIRP traffic on the wire",
	Long: `Bind the CHIRP port and print every decodable datagram.

Unlike watch, listen applies no group or self filtering: it shows all
CHIRP traffic reaching this host, which makes it the tool of choice for
debugging announcement problems. Undecodable datagrams are counted but
not printed.`,
	Example: `  chirp listen

  # Listen on a specific bind address
  chirp listen --any 192.168.1.17`,
	RunE: runListen,
}

func runListen(cmd *cobra.Command, args []string) error {
	id, err := resolveIdentity()
	if err != nil {
		return err
	}

	receiver, err := broadcast.NewReceiver(id.any)
	if err != nil {
		return err
	}

	// Close on Ctrl-C to unblock Recv
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		receiver.Close()
	}()

	fmt.Printf("Listening for CHIRP traffic on %s:%d\n", id.any, broadcast.Port)

	dropped := 0
	for {
		datagram, err := receiver.Recv()
		if err != nil {
			if dropped > 0 {
				fmt.Printf("(%d undecodable datagrams dropped)\n", dropped)
			}
			return nil
		}
		msg, err := protocol.Parse(datagram.Content)
		if err != nil {
			dropped++
			continue
		}
		fmt.Println("-----------------------------------------")
		fmt.Printf("Type:    %s\n", msg.Type)
		fmt.Printf("Group:   %s\n", msg.GroupHash)
		fmt.Printf("Name:    %s\n", msg.NameHash)
		fmt.Printf("Service: %s\n", msg.ServiceID)
		fmt.Printf("Port:    %d\n", msg.Port)
		fmt.Printf("From:    %s\n", datagram.Source)
	}
}

// Request command flags
var requestWait time.Duration

var requestCmd = &cobra.Command{
	Use:   "request <service>",
	Short: "Ask the group who offers a service",
	Long: `Broadcast a REQUEST for a service identifier and print the OFFERs
that arrive within the wait window.

Valid service names: ` + strings.Join(config.ServiceNames(), ", ") + `.`,
	Example: `  chirp request control

  # Wait longer on a lossy network
  chirp request data --wait 5s`,
	Args: cobra.ExactArgs(1),
	RunE: runRequest,
}

func init() {
	requestCmd.Flags().DurationVar(&requestWait, "wait", 2*time.Second, "how long to collect OFFERs")
}

func runRequest(cmd *cobra.Command, args []string) error {
	serviceID, err := config.ParseService(args[0])
	if err != nil {
		return err
	}

	id, err := resolveIdentity()
	if err != nil {
		return err
	}
	manager, err := id.newManager()
	if err != nil {
		return err
	}
	defer manager.Close()

	manager.SendRequest(serviceID)
	time.Sleep(requestWait)

	found := false
	for _, service := range manager.GetDiscoveredServices() {
		if service.Identifier != serviceID {
			continue
		}
		if !found {
			fmt.Printf("Offers for %s in group %q:\n", serviceID, id.group)
			found = true
		}
		fmt.Printf("  %s\n", service)
	}
	if !found {
		fmt.Printf("No offers for %s in group %q within %s\n", serviceID, id.group, requestWait)
	}
	return nil
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch discovered services live",
	Long: `Open the interactive watch screen: a live list of the services
announced by peers in this node's group. New OFFERs appear as they
arrive and LEAVING broadcasts remove entries. Press 'r' to broadcast a
REQUEST for every service identifier, 'q' to quit.`,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	id, err := resolveIdentity()
	if err != nil {
		return err
	}
	manager, err := id.newManager()
	if err != nil {
		return err
	}
	defer manager.Close()

	return tui.Run(manager, id.group, id.name)
}
