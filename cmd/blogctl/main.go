package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/d60-Lab/zenblog/config"
	"github.com/d60-Lab/zenblog/internal/client"
	"github.com/d60-Lab/zenblog/internal/model"
	"github.com/d60-Lab/zenblog/pkg/logger"
)

// getClient 根据 '--config' 与 '--endpoint' 构造客户端
func getClient(cmd *cobra.Command) (*client.Client, *config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, nil, err
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, nil, err
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return nil, nil, err
	}
	endpoint, err := cmd.Flags().GetString("endpoint")
	if err != nil {
		return nil, nil, err
	}
	if endpoint == "" {
		endpoint = cfg.Feed.BaseURL
	}
	var opts []client.Option
	if cfg.Feed.Timeout > 0 {
		opts = append(opts, client.WithTimeout(cfg.Feed.Timeout))
	}
	return client.NewClient(endpoint, opts...), cfg, nil
}

// readForm 只收集显式传入的标志，未传的字段保持 nil
func readForm(cmd *cobra.Command) (client.PostForm, error) {
	var form client.PostForm
	flags := cmd.Flags()
	if flags.Changed("title") {
		v, err := flags.GetString("title")
		if err != nil {
			return form, err
		}
		form.Title = &v
	}
	if flags.Changed("content") {
		v, err := flags.GetString("content")
		if err != nil {
			return form, err
		}
		form.Content = &v
	}
	if flags.Changed("published") {
		v, err := flags.GetBool("published")
		if err != nil {
			return form, err
		}
		form.Published = &v
	}
	return form, nil
}

func addFormFlags(cmd *cobra.Command) {
	cmd.Flags().String("title", "", "Post title")
	cmd.Flags().String("content", "", "Post content")
	cmd.Flags().Bool("published", false, "Publish the post")
}

func printPosts(w io.Writer, posts []*model.Post, total int64) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tPUBLISHED\tCREATED")
	for _, p := range posts {
		fmt.Fprintf(tw, "%s\t%s\t%t\t%s\n", p.ID, p.Title, p.Published, p.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	tw.Flush()
	fmt.Fprintf(w, "%d of %d posts\n", len(posts), total)
}

func printPost(w io.Writer, p *model.Post) {
	fmt.Fprintf(w, "id:        %s\n", p.ID)
	fmt.Fprintf(w, "title:     %s\n", p.Title)
	if p.Content != nil {
		fmt.Fprintf(w, "content:   %s\n", *p.Content)
	}
	fmt.Fprintf(w, "published: %t\n", p.Published)
	fmt.Fprintf(w, "created:   %s\n", p.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "updated:   %s\n", p.UpdatedAt.Format("2006-01-02 15:04:05"))
}

func listMain(cmd *cobra.Command, _ []string) error {
	c, cfg, err := getClient(cmd)
	if err != nil {
		return err
	}
	pages, err := cmd.Flags().GetInt("pages")
	if err != nil {
		return err
	}
	view, err := scroll(cmd.Context(), c, cfg.Feed.PageSize, pages, newNotifier(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}
	printPosts(cmd.OutOrStdout(), view.Posts, view.Total)
	if view.HasMore {
		fmt.Fprintln(cmd.OutOrStdout(), "more posts available, use --pages to load more")
	}
	return nil
}

func getMain(cmd *cobra.Command, args []string) error {
	c, _, err := getClient(cmd)
	if err != nil {
		return err
	}
	post, err := c.GetPost(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	printPost(cmd.OutOrStdout(), post)
	return nil
}

func createMain(cmd *cobra.Command, _ []string) error {
	c, _, err := getClient(cmd)
	if err != nil {
		return err
	}
	form, err := readForm(cmd)
	if err != nil {
		return err
	}
	if form.Published == nil {
		published := false
		form.Published = &published
	}
	post, err := c.CreatePost(cmd.Context(), form)
	if err != nil {
		return formError(cmd.ErrOrStderr(), err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Post created successfully!")
	printPost(cmd.OutOrStdout(), post)
	return nil
}

func updateMain(cmd *cobra.Command, args []string) error {
	c, _, err := getClient(cmd)
	if err != nil {
		return err
	}
	form, err := readForm(cmd)
	if err != nil {
		return err
	}
	post, err := c.UpdatePost(cmd.Context(), args[0], form)
	if err != nil {
		return formError(cmd.ErrOrStderr(), err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Post updated successfully!")
	printPost(cmd.OutOrStdout(), post)
	return nil
}

func deleteMain(cmd *cobra.Command, args []string) error {
	c, _, err := getClient(cmd)
	if err != nil {
		return err
	}
	if err := c.DeletePost(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("Failed to delete post: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Post deleted successfully!")
	return nil
}

// formError 把字段级错误逐行输出
func formError(w io.Writer, err error) error {
	for field, msgs := range client.FieldErrors(err) {
		for _, msg := range msgs {
			fmt.Fprintf(w, "  %s: %s\n", field, msg)
		}
	}
	return fmt.Errorf("Error: %w", err)
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "blogctl",
		Short:         "Terminal client for the zenblog API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("config", "", "Config file path")
	rootCmd.PersistentFlags().String("endpoint", "", "API base URL (defaults to feed.base_url)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Lists posts, newest first",
		Args:  cobra.NoArgs,
		RunE:  listMain,
	}
	listCmd.Flags().Int("pages", 1, "Number of pages to load")
	rootCmd.AddCommand(listCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: "Shows one post",
		Args:  cobra.ExactArgs(1),
		RunE:  getMain,
	})

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Creates a post",
		Args:  cobra.NoArgs,
		RunE:  createMain,
	}
	addFormFlags(createCmd)
	rootCmd.AddCommand(createCmd)

	updateCmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Updates the given fields of a post",
		Args:  cobra.ExactArgs(1),
		RunE:  updateMain,
	}
	addFormFlags(updateCmd)
	rootCmd.AddCommand(updateCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Deletes a post",
		Args:  cobra.ExactArgs(1),
		RunE:  deleteMain,
	})
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
