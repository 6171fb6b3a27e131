package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fearless-dhbw/img-classification/internal/app"
	"github.com/fearless-dhbw/img-classification/internal/dto"
	"github.com/fearless-dhbw/img-classification/internal/service/decoder"
)

var classifyImage string

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify the faces in an image file and print the JSON response",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(classifyImage)
		if err != nil {
			return err
		}
		img, err := decoder.DecodeBytes(data)
		if err != nil {
			return err
		}

		p, detector, err := app.NewPipeline(cfg, log, nil, true)
		if err != nil {
			return err
		}
		defer detector.Close()

		results, err := p.ClassifyImage(cmd.Context(), img)
		if err != nil {
			return fmt.Errorf("classification failed: %w", err)
		}
		dictionary, err := p.Dictionary()
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(dto.NewClassificationResponses(results, dictionary))
	},
}

func init() {
	classifyCmd.Flags().StringVarP(&classifyImage, "image", "i", "", "Image file to classify")
	classifyCmd.MarkFlagRequired("image")
	rootCmd.AddCommand(classifyCmd)
}
