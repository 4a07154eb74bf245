package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"seriald/internal/serial"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available serial ports",
	Long: `List all available serial ports on the system.

Scans for communication-capable serial devices (ttyUSB*, ttyACM*, ttyS*,
ttyAMA* and other platform-specific names). Virtual terminals and
pseudo-terminals are excluded.`,
	Run: func(cmd *cobra.Command, args []string) {
		ports, err := serial.ListPorts()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing ports: %v\n", err)
			os.Exit(1)
		}

		filterType, _ := cmd.Flags().GetString("filter")
		tableFormat, _ := cmd.Flags().GetBool("table")

		ports = filterPorts(ports, filterType)
		if len(ports) == 0 {
			fmt.Println("No serial ports found")
			return
		}

		if tableFormat {
			renderPortTable(ports)
			return
		}
		for _, port := range ports {
			fmt.Println(port)
		}
	},
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringP("filter", "f", "", "Filter by port type: usb, standard, arm, all")
	listCmd.Flags().BoolP("table", "t", false, "Display output in a styled table format")
}

// filterPorts filters the port list based on the specified filter type
func filterPorts(ports []string, filterType string) []string {
	if filterType == "" || filterType == "all" {
		return ports
	}

	var filtered []string
	for _, port := range ports {
		info, err := serial.GetPortInfo(port)
		if err != nil {
			continue
		}

		name := strings.ToLower(info.Name)
		switch strings.ToLower(filterType) {
		case "usb":
			if strings.HasPrefix(name, "ttyusb") || strings.HasPrefix(name, "ttyacm") {
				filtered = append(filtered, port)
			}
		case "standard":
			if strings.HasPrefix(name, "ttys") {
				filtered = append(filtered, port)
			}
		case "arm":
			if strings.HasPrefix(name, "ttyama") {
				filtered = append(filtered, port)
			}
		}
	}
	return filtered
}

// renderPortTable renders the port list in a styled static table format
func renderPortTable(ports []string) {
	fmt.Printf("Found %d serial port(s):\n\n", len(ports))

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("99")).
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("240"))

	fmt.Println(headerStyle.Render(fmt.Sprintf("%-20s %-30s", "Port", "Description")))

	for _, port := range ports {
		info, err := serial.GetPortInfo(port)
		if err != nil {
			fmt.Printf("%-20s %-30s\n", port, "Unknown")
			continue
		}
		fmt.Printf("%-20s %-30s\n", info.Path, info.Description)
	}
}
