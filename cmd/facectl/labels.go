package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fearless-dhbw/img-classification/internal/service/batch"
	"github.com/fearless-dhbw/img-classification/internal/service/classifier"
)

var labelsOpts struct {
	InputDir   string
	OutputPath string
}

var labelsCmd = &cobra.Command{
	Use:   "labels",
	Short: "Write a class dictionary from the dataset folder names",
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := batch.Labels(labelsOpts.InputDir)
		if err != nil {
			return err
		}
		dictionary, err := classifier.LabelsFromNames(names)
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(dictionary, "", "  ")
		if err != nil {
			return err
		}

		if err := os.MkdirAll(filepath.Dir(labelsOpts.OutputPath), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(labelsOpts.OutputPath, append(data, '\n'), 0644); err != nil {
			return err
		}
		fmt.Printf("Wrote %d labels to %s\n", dictionary.Len(), labelsOpts.OutputPath)
		return nil
	},
}

func init() {
	labelsCmd.Flags().StringVarP(&labelsOpts.InputDir, "input", "i", "", "Dataset directory with one folder per label")
	labelsCmd.Flags().StringVarP(&labelsOpts.OutputPath, "out", "o", filepath.Join("artifacts", "class_dictionary.json"), "Output class dictionary")
	labelsCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(labelsCmd)
}
