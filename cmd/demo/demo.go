package main

import (
	"fmt"
	"io"
	"os"

	virtual_serial "github.com/bulwarkid/virtual-serial"
	"github.com/bulwarkid/virtual-serial/profile"
	"github.com/bulwarkid/virtual-serial/util"
	"github.com/spf13/cobra"
)

var profileFilename string
var profilePassphrase string
var verbose bool

func checkErr(err error, message string) {
	if err != nil {
		panic(fmt.Sprintf("Error: %s - %s", err, message))
	}
}

func loadProfile() *profile.DeviceProfile {
	f, err := os.Open(profileFilename)
	if os.IsNotExist(err) {
		return profile.DefaultProfile()
	}
	checkErr(err, "Could not open profile file")
	defer f.Close()
	data, err := io.ReadAll(f)
	checkErr(err, "Could not read profile file")
	deviceProfile, err := profile.DecryptProfile(data, profilePassphrase)
	checkErr(err, "Could not decrypt profile")
	return deviceProfile
}

func saveProfile(deviceProfile *profile.DeviceProfile) {
	data, err := profile.EncryptProfile(deviceProfile, profilePassphrase)
	checkErr(err, "Could not encrypt profile")
	err = os.WriteFile(profileFilename, data, 0o600)
	checkErr(err, "Could not write profile file")
}

func start(cmd *cobra.Command, args []string) {
	virtual_serial.SetLogOutput(os.Stdout)
	if verbose {
		virtual_serial.SetLogLevel(util.LogLevelTrace)
	} else {
		virtual_serial.SetLogLevel(util.LogLevelDebug)
	}
	runServer(loadProfile())
}

func showProfile(cmd *cobra.Command, args []string) {
	deviceProfile := loadProfile()
	fmt.Printf("------- Ports in file '%s' -------\n", profileFilename)
	for port, portProfile := range deviceProfile.Ports {
		lines := ""
		if portProfile.DTR {
			lines += " DTR"
		}
		if portProfile.RTS {
			lines += " RTS"
		}
		fmt.Printf("%d: '%s' %s%s\n", port, portProfile.Name, portProfile.LineCoding, lines)
	}
}

func initProfile(cmd *cobra.Command, args []string) {
	saveProfile(profile.DefaultProfile())
	cmd.Printf("Wrote default profile to '%s'\n", profileFilename)
}

var rootCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run virtual serial demo",
	Long:  `demo attaches a virtual dual-port serial device that echoes input`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&profileFilename, "profile", "", "profile.data", "Port profile filename")
	rootCmd.PersistentFlags().StringVarP(&profilePassphrase, "passphrase", "", "passphrase", "Port profile passphrase")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	start := &cobra.Command{
		Use:   "start",
		Short: "Attach virtual serial device",
		Run:   start,
	}
	rootCmd.AddCommand(start)

	profileCommand := &cobra.Command{
		Use:   "profile",
		Short: "Inspect saved port profiles",
	}
	showCommand := &cobra.Command{
		Use:   "show",
		Short: "Show saved port settings",
		Run:   showProfile,
	}
	profileCommand.AddCommand(showCommand)
	initCommand := &cobra.Command{
		Use:   "init",
		Short: "Write a default profile file",
		Run:   initProfile,
	}
	profileCommand.AddCommand(initCommand)
	rootCmd.AddCommand(profileCommand)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
