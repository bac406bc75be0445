// File: cmd/publish.go
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/xhsdash/xhs-cli/internal/service"
)

var (
	publishTitle   string
	publishContent string
	publishTags    []string
	publishImages  []string
	publishVideo   string
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish notes through the creator studio",
}

var publishImageCmd = &cobra.Command{
	Use:   "image",
	Short: "Publish an image note",
	Long: `Publishes an image note. Images may be local files or http(s) URLs;
remote images are downloaded to a temporary directory first. Title display
width is limited, with CJK characters counting double.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := service.NewPublishService(appEnv)
		return emit(svc.PublishImages(cmd.Context(), service.PublishRequest{
			Title:       publishTitle,
			Content:     publishContent,
			Tags:        publishTags,
			Images:      publishImages,
			BrowserPath: browserPath,
		}))
	},
}

var publishVideoCmd = &cobra.Command{
	Use:   "video",
	Short: "Publish a video note",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := service.NewPublishService(appEnv)
		return emit(svc.PublishVideo(cmd.Context(), service.PublishRequest{
			Title:       publishTitle,
			Content:     publishContent,
			Tags:        publishTags,
			Video:       publishVideo,
			BrowserPath: browserPath,
		}))
	},
}

func init() {
	for _, c := range []*cobra.Command{publishImageCmd, publishVideoCmd} {
		c.Flags().StringVarP(&publishTitle, "title", "t", "", "note title (required)")
		c.Flags().StringVarP(&publishContent, "content", "d", "", "note body text (required)")
		c.Flags().StringSliceVar(&publishTags, "tags", nil, "topic tags, comma separated")
		c.MarkFlagRequired("title")
		c.MarkFlagRequired("content")
	}
	publishImageCmd.Flags().StringSliceVarP(&publishImages, "images", "i", nil, "image paths or URLs, comma separated (required)")
	publishImageCmd.MarkFlagRequired("images")
	publishVideoCmd.Flags().StringVarP(&publishVideo, "video", "v", "", "local video file path (required)")
	publishVideoCmd.MarkFlagRequired("video")

	publishCmd.AddCommand(publishImageCmd, publishVideoCmd)
	rootCmd.AddCommand(publishCmd)
}
