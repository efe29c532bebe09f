package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bturcanu/pipedrive-connector/pkg/config"
	"github.com/bturcanu/pipedrive-connector/pkg/skill"
)

var skillDir string

var skillCmd = &cobra.Command{
	Use:   "skill",
	Short: "Manage the Pipedrive skill file",
}

var skillInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the bundled skill file if missing",
	Long: `Write SKILL.md to the skill directory. An existing file that differs
from the bundled template is left untouched and the template is written
next to it as SKILL.md.latest.`,
	Args: cobra.NoArgs,
	RunE: runSkillInit,
}

func init() {
	skillInitCmd.Flags().StringVar(&skillDir, "dir", "", "Skill directory (default $PIPEDRIVE_SKILL_DIR or ~/.openclause/skills/pipedrive)")
	skillCmd.AddCommand(skillInitCmd)
	rootCmd.AddCommand(skillCmd)
}

func runSkillInit(cmd *cobra.Command, _ []string) error {
	dir := skillDir
	if dir == "" {
		opts, err := loadOptions()
		if err != nil {
			return err
		}
		dir = config.FromOptions(opts).SkillDir
	}
	if dir == "" {
		dir = skill.DefaultDir()
	}

	outcome, err := skill.Scaffold(dir, skill.Template())
	if err != nil {
		return err
	}
	target := filepath.Join(dir, skill.FileName)
	if outcome == skill.OutcomeUpdateAvailable {
		target += skill.LatestSuffix
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", outcome, target)
	return err
}
