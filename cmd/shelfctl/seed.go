package main

import (
	"fmt"

	"moneyshelf/internal/database"
	"moneyshelf/internal/repository"
	"moneyshelf/internal/seed"

	"github.com/spf13/cobra"
)

var seedOpts = seed.DefaultOptions()

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill the database and shelf file with demo data",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.IsProduction() {
			return errProductionRefused
		}
		db, err := database.Connect(cfg)
		if err != nil {
			return err
		}

		store := repository.NewShelfStore(cfg.ShelfDataFile)
		sum, err := seed.NewFactory(db, store, seedOpts).Run(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seeded %d users, %d posts, %d comments, %d likes, %d follows, %d books\n",
			sum.Users, sum.Posts, sum.Comments, sum.Likes, sum.Follows, sum.Books)
		if !seedOpts.SkipBcrypt {
			fmt.Fprintf(cmd.OutOrStdout(), "every account uses the password %q\n", seed.DemoPassword)
		}
		return nil
	},
}

func init() {
	seedCmd.Flags().IntVar(&seedOpts.Users, "users", seedOpts.Users, "Number of users")
	seedCmd.Flags().IntVar(&seedOpts.PostsPerUser, "posts", seedOpts.PostsPerUser, "Posts per user")
	seedCmd.Flags().IntVar(&seedOpts.BooksPerShelf, "books", seedOpts.BooksPerShelf, "Generated books per fixed shelf (0 leaves the shelf file alone)")
	seedCmd.Flags().Int64Var(&seedOpts.Seed, "seed", 0, "Random seed for reproducible data")
	seedCmd.Flags().BoolVar(&seedOpts.SkipBcrypt, "fast", false, "Store plain passwords (accounts cannot log in)")
}
