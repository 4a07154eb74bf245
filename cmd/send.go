package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"seriald/internal/hub"
	"seriald/internal/serial"
	"seriald/internal/tui/colors"
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send [text] <port>",
	Short: "Send a line of text to a serial port",
	Long: `Open a serial port, send one line of text and close the port again.

Text can be provided as an argument or piped on stdin:

  seriald send "AT+GMR" /dev/ttyUSB0
  echo "ping" | seriald send /dev/ttyUSB0 --baud 9600

A newline terminator is always appended, matching the daemon's write
operation.`,
	Args: cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		var text, portPath string

		if len(args) == 1 {
			portPath = args[0]
			stat, err := os.Stdin.Stat()
			if err != nil || (stat.Mode()&os.ModeCharDevice) != 0 {
				text = promptForText()
			} else {
				data, err := io.ReadAll(os.Stdin)
				if err != nil {
					fmt.Fprintf(os.Stderr, "Error reading from stdin: %v\n", err)
					os.Exit(1)
				}
				text = strings.TrimRight(string(data), "\r\n")
			}
		} else {
			text = args[0]
			portPath = args[1]
		}

		baud, _ := cmd.Flags().GetInt("baud")

		if err := sendLine(portPath, text, baud); err != nil {
			errStyle := lipgloss.NewStyle().Foreground(colors.Red).Bold(true)
			fmt.Fprintf(os.Stderr, "%s %v\n", errStyle.Render("✗"), err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().IntP("baud", "b", serial.DefaultBaudRate, "Baud rate")
}

func promptForText() string {
	promptStyle := lipgloss.NewStyle().Bold(true).Foreground(colors.Mauve)
	fmt.Print(promptStyle.Render("Enter text to send: "))

	scanner := bufio.NewScanner(os.Stdin)
	if scanner.Scan() {
		return scanner.Text()
	}
	return ""
}

func sendLine(portPath, text string, baud int) error {
	successStyle := lipgloss.NewStyle().Foreground(colors.Green).Bold(true)

	reg := hub.NewRegistry()
	defer reg.CloseAll()

	if err := reg.Open(portPath, baud); err != nil {
		return err
	}
	if err := reg.Write(portPath, text); err != nil {
		return err
	}

	fmt.Printf("%s Sent %q to %s\n", successStyle.Render("✓"), text, portPath)
	return nil
}
