package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/dictor/gelbooru"
	"github.com/dictor/gelbooru/downloader"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	configPath   string
	configStruct Config
	logger       = logrus.New()
	version      = "undefined"
)

func getVersion() string {
	if version != "undefined" {
		return version
	}

	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" && setting.Value != "" {
				return setting.Value
			}
		}
	}

	return version
}

var rootCmd = &cobra.Command{
	Use:     "gelbooru command [options]",
	Short:   "Search and download from Gelbooru",
	Version: getVersion(),
}

var searchCmd = &cobra.Command{
	Use:   "search tag [tag...]",
	Short: "Search posts by tags",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := mustClient()
		defer client.Close()

		exclude, _ := cmd.Flags().GetStringSlice("exclude")
		limit, _ := cmd.Flags().GetInt("limit")
		page, _ := cmd.Flags().GetInt("page")
		random, _ := cmd.Flags().GetBool("random")

		posts, err := client.SearchPosts(cmd.Context(), args, gelbooru.SearchOptions{
			ExcludeTags: exclude,
			Limit:       limit,
			Page:        page,
			Random:      random,
		})
		if err != nil {
			logger.WithError(err).Fatalln("search failed")
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			printJSON(posts)
			return
		}

		for _, post := range posts {
			fmt.Println(post)
		}
	},
}

var getCmd = &cobra.Command{
	Use:   "get [options]",
	Short: "Get a single post by id or md5",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		client := mustClient()
		defer client.Close()

		id, _ := cmd.Flags().GetInt("id")
		md5, _ := cmd.Flags().GetString("md5")

		posts, err := client.GetPost(cmd.Context(), id, md5)
		if err != nil {
			logger.WithError(err).Fatalln("get failed")
		}
		if len(posts) == 0 {
			logger.Fatalln("no such post")
		}
		post := posts[0]

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			printJSON(post)
			return
		}

		fmt.Printf("id:     %d\n", post.ID)
		fmt.Printf("md5:    %s\n", post.MD5)
		fmt.Printf("rating: %s\n", post.Rating)
		fmt.Printf("size:   %dx%d\n", post.Width, post.Height)
		fmt.Printf("tags:   %s\n", strings.Join(post.Tags, " "))
		fmt.Printf("file:   %s\n", post.FileURL)
	},
}

var tagsCmd = &cobra.Command{
	Use:   "tags [name...]",
	Short: "Search tags, or get one by id",
	Run: func(cmd *cobra.Command, args []string) {
		client := mustClient()
		defer client.Close()

		if id, _ := cmd.Flags().GetInt("id"); id != 0 {
			if len(args) > 0 {
				logger.Fatalln("give either --id or names, not both")
			}

			tag, err := client.GetTag(cmd.Context(), "", id)
			if err != nil {
				logger.WithError(err).Fatalln("tag lookup failed")
			}
			printTags(cmd, []gelbooru.Tag{tag})
			return
		}

		pattern, _ := cmd.Flags().GetString("pattern")
		afterID, _ := cmd.Flags().GetInt("after-id")
		order, _ := cmd.Flags().GetString("order")
		orderBy, _ := cmd.Flags().GetString("orderby")
		limit, _ := cmd.Flags().GetInt("limit")

		tags, err := client.SearchTags(cmd.Context(), args, gelbooru.TagSearchOptions{
			Limit:       limit,
			NamePattern: pattern,
			AfterID:     afterID,
			Order:       order,
			OrderBy:     orderBy,
		})
		if err != nil {
			logger.WithError(err).Fatalln("tag search failed")
		}
		printTags(cmd, tags)
	},
}

var commentsCmd = &cobra.Command{
	Use:   "comments post-id",
	Short: "List the comments on a post",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			logger.Fatalln("post id must be a number")
		}

		client := mustClient()
		defer client.Close()

		comments, err := client.PostComments(cmd.Context(), gelbooru.Post{ID: id})
		if err != nil {
			logger.WithError(err).Fatalln("listing comments failed")
		}

		for _, comment := range comments {
			fmt.Println(comment)
		}
	},
}

var fetchCmd = &cobra.Command{
	Use:   "fetch tag [tag...]",
	Short: "Download every post matching the tags",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := mustClient()
		defer client.Close()

		exclude, _ := cmd.Flags().GetStringSlice("exclude")
		lastID, _ := cmd.Flags().GetInt("last-id")
		pageSize, _ := cmd.Flags().GetInt("page-size")

		d := downloader.New(client, downloader.Options{
			Tags:        args,
			ExcludeTags: exclude,
			OutputDir:   viper.GetString("output_dir"),
			LastID:      lastID,
			PageSize:    pageSize,
			Threads:     viper.GetUint("threads"),
			Logger:      logger,
		})

		if err := d.Download(cmd.Context()); err != nil {
			logger.WithError(err).Fatalln("fetch failed")
		}
	},
}

func mustClient() *gelbooru.Client {
	client, err := gelbooru.New(gelbooru.Options{
		APIKey: configStruct.ApiKey,
		UserID: configStruct.UserId,
		Logger: logger,
	})
	if err != nil {
		logger.WithError(err).Fatalln("bad client options")
	}
	return client
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		logger.WithError(err).Fatalln("encoding output failed")
	}
	fmt.Println(string(out))
}

func printTags(cmd *cobra.Command, tags []gelbooru.Tag) {
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		printJSON(tags)
		return
	}

	for _, tag := range tags {
		fmt.Printf("%s\t%d\t%d\n", tag.Name, tag.Count, tag.Type)
	}
}

func init() {
	rootCmd.AddCommand(searchCmd, getCmd, tagsCmd, commentsCmd, fetchCmd)

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config")
	rootCmd.PersistentFlags().Bool("debug", false, "Print debug log")
	rootCmd.PersistentFlags().String("api_key", "", "API key sent with every request")
	rootCmd.PersistentFlags().Int("user_id", 0, "User id paired with the api key")

	searchCmd.Flags().StringSliceP("exclude", "x", nil, "Tags to exclude")
	searchCmd.Flags().IntP("limit", "l", 1, "Maximum number of posts")
	searchCmd.Flags().IntP("page", "p", 0, "Result page")
	searchCmd.Flags().Bool("random", false, "Ask for random posts")
	searchCmd.Flags().Bool("json", false, "Print posts as JSON")

	getCmd.Flags().Int("id", 0, "Post id")
	getCmd.Flags().String("md5", "", "Post md5 hash")
	getCmd.Flags().Bool("json", false, "Print the post as JSON")

	tagsCmd.Flags().String("pattern", "", "Wildcard name pattern (_ and %)")
	tagsCmd.Flags().Int("after-id", 0, "Only tags with an id above this")
	tagsCmd.Flags().String("order", "", "asc or desc")
	tagsCmd.Flags().String("orderby", "", "date, count or name")
	tagsCmd.Flags().IntP("limit", "l", 1, "Maximum number of tags")
	tagsCmd.Flags().Int("id", 0, "Get a single tag by id")
	tagsCmd.Flags().Bool("json", false, "Print tags as JSON")

	fetchCmd.Flags().StringSliceP("exclude", "x", nil, "Tags to exclude")
	fetchCmd.Flags().StringP("output", "o", ".", "Output directory")
	fetchCmd.Flags().Int("last-id", 0, "Stop once post ids drop below this")
	fetchCmd.Flags().UintP("threads", "t", 5, "Number of parallel downloads")
	fetchCmd.Flags().Int("page-size", 100, "Posts fetched per page")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("api_key", rootCmd.PersistentFlags().Lookup("api_key"))
	viper.BindPFlag("user_id", rootCmd.PersistentFlags().Lookup("user_id"))
	viper.BindPFlag("output_dir", fetchCmd.Flags().Lookup("output"))
	viper.BindPFlag("threads", fetchCmd.Flags().Lookup("threads"))

	cobra.OnInitialize(initConfig)
}

func Execute() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, os.Interrupt)
	go func() {
		<-sigch
		cancel()
	}()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
