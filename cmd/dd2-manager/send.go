package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"dd2-manager/internal/ipc"
)

var sendCmd = &cobra.Command{
	Use:   "send <command> [args...]",
	Short: "Send a command to the running instance",
	Long: `Send a command to a running "dd2-manager run".

Commands:
  rotate [forward|backward]      rotate the main window
  refresh                        re-discover windows and re-apply the layout
  apply                          re-apply the layout without re-discovery
  select                         toggle click-to-select main window
  rotation [on|off|toggle]       switch the rotation hotkeys
  sender <name> [on|off|toggle]  switch a periodic sender
  send <key> [all|inactive]      send one key to the game windows
  shop                           cycle shopping OFF -> SETUP -> AUTO_RUN -> OFF
  cancel                         stop auto-shopping
  status                         print current state
  stop                           emergency stop`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := ipc.NewClient(cfg.GetSocketPath(), log)
		resp, err := client.Send(cmd.Context(), args[0], args[1:]...)
		if err != nil {
			return err
		}
		if !resp.OK() {
			return fmt.Errorf("%s", resp.Message)
		}

		color.New(color.FgGreen).Fprint(cmd.OutOrStdout(), "ok: ")
		fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
		if len(resp.Data) > 0 {
			out, err := yaml.Marshal(resp.Data)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(out))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
}
