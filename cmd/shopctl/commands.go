package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"omifemcuts/internal/carousel"
	"omifemcuts/internal/catalog"
	"omifemcuts/internal/contact"
	"omifemcuts/internal/datefmt"
	"omifemcuts/pkg/domain"
	"omifemcuts/pkg/events"
	"omifemcuts/pkg/shopclient"
)

func newLoginCmd(opts *options) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and print a session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context(cmd)
			defer cancel()
			if password == "" {
				password = os.Getenv("SHOPCTL_PASSWORD")
			}
			session := shopclient.NewSession(opts.client())
			user, err := session.SignIn(ctx, email, password)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "signed in as %s (%s)\n", domain.ProfileName(user.Name, user.Email), user.Role)
			fmt.Fprintln(out, session.Token())
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password (or set SHOPCTL_PASSWORD)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newBrowseCmd(opts *options) *cobra.Command {
	var (
		category, query, sortBy string
		pages                   int
	)
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "List catalog styles page by page",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, ok := catalog.ParseFilter(category, query)
			if !ok {
				return fmt.Errorf("unknown category %q", category)
			}
			by, ok := catalog.ParseSort(sortBy)
			if !ok {
				return fmt.Errorf("unknown sort %q", sortBy)
			}
			ctx, cancel := opts.context(cmd)
			defer cancel()

			pager := catalog.NewPager(opts.client())
			if err := pager.LoadInitial(ctx); err != nil {
				return err
			}
			pager.SetFilter(filter)
			if err := pager.SetSort(ctx, by); err != nil {
				return err
			}
			for i := 1; i < pages && pager.HasMore(); i++ {
				if err := pager.LoadMore(ctx); err != nil {
					return err
				}
			}
			out := cmd.OutOrStdout()
			if pager.Empty() {
				fmt.Fprintln(out, "No styles match. Clear the filters to see the whole catalog.")
				return nil
			}
			writeStyles(out, pager.Displayed())
			if pager.HasMore() {
				fmt.Fprintf(out, "\nmore styles available: rerun with --pages %d\n", pages+1)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", catalog.AllCategories, "Category filter")
	cmd.Flags().StringVarP(&query, "query", "q", "", "Search title, description and tags")
	cmd.Flags().StringVar(&sortBy, "sort", string(catalog.SortNewest), "newest or popular")
	cmd.Flags().IntVar(&pages, "pages", 1, "How many pages to show")
	return cmd
}

func writeStyles(out io.Writer, styles []domain.Style) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tCATEGORY\tLIKES\tWITH FABRIC\tADDED")
	for _, s := range styles {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			s.ID, s.Title, s.Category, s.LikeCount(), contact.FormatNaira(s.PriceWithFabrics), datefmt.Short(s.CreatedAt))
	}
	_ = tw.Flush()
}

func newStyleCmd(opts *options) *cobra.Command {
	var mode string
	cmd := &cobra.Command{
		Use:   "style <id>",
		Short: "Show a style with its order link and related styles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			priceMode, ok := contact.ParsePriceMode(mode)
			if !ok {
				return fmt.Errorf("unknown price mode %q (fabric or tailoring)", mode)
			}
			ctx, cancel := opts.context(cmd)
			defer cancel()
			client := opts.client()
			style, err := client.GetStyle(ctx, args[0])
			if err != nil {
				return err
			}
			link, err := client.OrderLink(ctx, style.ID, priceMode)
			if err != nil {
				return err
			}
			related, err := client.RelatedStyles(ctx, style.ID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)\n%s\n\n", style.Title, style.Category, style.Description)
			fmt.Fprintf(out, "Price without fabric: %s\n", contact.FormatNaira(style.PriceWithoutFabrics))
			fmt.Fprintf(out, "Price with fabric:    %s\n", contact.FormatNaira(style.PriceWithFabrics))
			fmt.Fprintf(out, "Delivery:             %s\n", style.DeliveryTime)
			fmt.Fprintf(out, "Likes:                %d\n", style.LikeCount())
			if len(style.Tags) > 0 {
				fmt.Fprintf(out, "Tags:                 %s\n", strings.Join(style.Tags, ", "))
			}
			fmt.Fprintf(out, "Added:                %s\n\nOrder on WhatsApp: %s\n", datefmt.Long(style.CreatedAt), link)
			if len(related) > 0 {
				fmt.Fprintln(out, "\nYou may also like:")
				writeStyles(out, related)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "mode", string(contact.ModeFabric), "Price mode for the order link: fabric or tailoring")
	return cmd
}

func newLikeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "like <id>",
		Short: "Toggle your like on a style",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context(cmd)
			defer cancel()
			session, err := opts.session(ctx)
			if err != nil {
				return err
			}
			res, err := opts.client().ToggleLike(ctx, session.Token(), args[0])
			if err != nil {
				return err
			}
			state := "unliked"
			if res.Liked {
				state = "liked"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%d likes)\n", state, res.StyleID, res.Likes)
			return nil
		},
	}
}

func newReviewsCmd(opts *options) *cobra.Command {
	var (
		width    int
		interval time.Duration
		ticks    int
	)
	cmd := &cobra.Command{
		Use:   "reviews",
		Short: "Show approved reviews as the rotating homepage strip",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context(cmd)
			defer cancel()
			items, err := opts.client().PublicFeedback(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(out, "No reviews yet.")
				return nil
			}
			window := carousel.NewWindow(len(items), carousel.ItemsPerView(width))
			printWindow(out, items, window)
			if ticks <= 0 || !window.Navigable() {
				return nil
			}

			rotateCtx, stop := context.WithCancel(ctx)
			defer stop()
			remaining := ticks
			window.Rotate(rotateCtx, interval, func(int) {
				fmt.Fprintln(out, "---")
				printWindow(out, items, window)
				remaining--
				if remaining == 0 {
					stop()
				}
			})
			return nil
		},
	}
	cmd.Flags().IntVar(&width, "width", 1024, "Viewport width used to size the strip")
	cmd.Flags().DurationVar(&interval, "interval", carousel.DefaultInterval, "Rotation period")
	cmd.Flags().IntVar(&ticks, "ticks", 0, "Rotate this many times before exiting")
	return cmd
}

func printWindow(out io.Writer, items []domain.Feedback, window *carousel.Window) {
	start, end := window.Visible()
	for _, f := range items[start:end] {
		fmt.Fprintf(out, "%s %s  %s\n  %q\n", strings.Repeat("*", f.Rating), f.UserName, datefmt.Short(f.CreatedAt), f.Comment)
	}
}

func newLinksCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "links",
		Short: "Print the shop's contact links and opening hours",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context(cmd)
			defer cancel()
			links, err := opts.client().ContactLinks(ctx)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "WhatsApp\t%s\n", links.WhatsApp)
			fmt.Fprintf(tw, "Custom design\t%s\n", links.CustomDesign)
			fmt.Fprintf(tw, "Consultation\t%s\n", links.Consultation)
			fmt.Fprintf(tw, "Phone\t%s\n", links.Phone)
			fmt.Fprintf(tw, "Email\t%s\n", links.Email)
			fmt.Fprintf(tw, "Address\t%s\n", links.Address)
			for _, h := range links.Hours {
				fmt.Fprintf(tw, "%s\t%s\n", h.Days, h.Hours)
			}
			return tw.Flush()
		},
	}
}

func newDashboardCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Print admin analytics",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context(cmd)
			defer cancel()
			session, err := opts.session(ctx)
			if err != nil {
				return err
			}
			dash := shopclient.NewDashboard(opts.client(), session)
			if err := dash.Load(ctx); err != nil {
				return err
			}
			a := dash.State().Analytics
			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "Users\t%d\n", a.TotalUsers)
			fmt.Fprintf(tw, "Styles\t%d\n", a.TotalStyles)
			fmt.Fprintf(tw, "Likes\t%d\n", a.TotalLikes)
			fmt.Fprintf(tw, "Feedback\t%d (%d pending)\n", a.TotalFeedback, a.PendingFeedback)
			_ = tw.Flush()
			if len(a.RecentSignups) > 0 {
				fmt.Fprintln(out, "\nRecent sign-ups:")
				for _, u := range a.RecentSignups {
					fmt.Fprintf(out, "  %s <%s> %s\n", domain.ProfileName(u.Name, u.Email), u.Email, datefmt.Short(u.CreatedAt))
				}
			}
			if len(a.PopularStyles) > 0 {
				fmt.Fprintln(out, "\nMost liked:")
				writeStyles(out, a.PopularStyles)
			}
			return nil
		},
	}
}

func newAdminCmd(opts *options) *cobra.Command {
	admin := &cobra.Command{
		Use:   "admin",
		Short: "Moderate feedback and manage styles and users",
	}

	var reject bool
	approve := &cobra.Command{
		Use:   "approve <feedback-id>",
		Short: "Publish (or with --reject, hide) a review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDashboard(cmd, opts, func(ctx context.Context, dash *shopclient.Dashboard) error {
				f, err := dash.SetFeedbackApproval(ctx, args[0], !reject)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "feedback %s approved=%t\n", f.ID, f.Approved)
				return nil
			})
		},
	}
	approve.Flags().BoolVar(&reject, "reject", false, "Hide the review instead")

	var role string
	setRole := &cobra.Command{
		Use:   "set-role <user-id>",
		Short: "Grant or remove the admin role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, ok := domain.ParseUserRole(role)
			if !ok {
				return fmt.Errorf("unknown role %q (user or admin)", role)
			}
			return withDashboard(cmd, opts, func(ctx context.Context, dash *shopclient.Dashboard) error {
				u, err := dash.SetUserRole(ctx, args[0], parsed)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "user %s is now %s\n", u.ID, u.Role)
				return nil
			})
		},
	}
	setRole.Flags().StringVar(&role, "role", "", "user or admin")
	_ = setRole.MarkFlagRequired("role")

	var yes bool
	deleteCmd := func(use, kind string, del func(*shopclient.Dashboard, context.Context, string) error) *cobra.Command {
		c := &cobra.Command{
			Use:   use,
			Short: "Delete a " + kind,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if !yes {
					return errors.New("refusing to delete without --yes")
				}
				return withDashboard(cmd, opts, func(ctx context.Context, dash *shopclient.Dashboard) error {
					if err := del(dash, ctx, args[0]); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "deleted %s %s\n", kind, args[0])
					return nil
				})
			},
		}
		c.Flags().BoolVar(&yes, "yes", false, "Confirm the deletion")
		return c
	}

	admin.AddCommand(
		approve,
		setRole,
		deleteCmd("delete-style <id>", "style", (*shopclient.Dashboard).DeleteStyle),
		deleteCmd("delete-feedback <id>", "feedback", (*shopclient.Dashboard).DeleteFeedback),
		deleteCmd("delete-user <id>", "user", (*shopclient.Dashboard).DeleteUser),
		newAdminMessagesCmd(opts),
	)
	return admin
}

func newAdminMessagesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "messages",
		Short: "List contact form messages",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context(cmd)
			defer cancel()
			session, err := opts.session(ctx)
			if err != nil {
				return err
			}
			msgs, err := opts.client().ListContactMessages(ctx, session.Token())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, m := range msgs {
				fmt.Fprintf(out, "%s  %s <%s> %s\n  %s\n  %s\n\n", datefmt.Long(m.CreatedAt), m.Name, m.Email, m.Phone, m.Subject, m.Message)
			}
			return nil
		},
	}
}

func withDashboard(cmd *cobra.Command, opts *options, fn func(context.Context, *shopclient.Dashboard) error) error {
	ctx, cancel := opts.context(cmd)
	defer cancel()
	session, err := opts.session(ctx)
	if err != nil {
		return err
	}
	dash := shopclient.NewDashboard(opts.client(), session)
	if err := dash.Load(ctx); err != nil {
		return err
	}
	return fn(ctx, dash)
}

func newEventsCmd(opts *options) *cobra.Command {
	eventsCmd := &cobra.Command{
		Use:   "events",
		Short: "Work with the shop event stream",
	}
	var (
		redisAddr, redisPassword, stream, group, consumer string
	)
	tail := &cobra.Command{
		Use:   "tail",
		Short: "Follow shop events from the Redis stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			sub, err := eventsSubscriber(redisAddr, redisPassword, stream)
			if err != nil {
				return err
			}
			defer sub.Close()
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			out := cmd.OutOrStdout()
			err = sub.Subscribe(ctx, group, consumer, func(_ context.Context, e events.Event) error {
				fmt.Fprintf(out, "%s  %-20s %s %v\n", datefmt.Long(e.OccurredAt), e.Type, e.Subject, e.Data)
				return nil
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	tail.Flags().StringVar(&redisAddr, "redis", envOr("REDIS_ADDR", "localhost:6379"), "Redis address")
	tail.Flags().StringVar(&redisPassword, "redis-password", os.Getenv("REDIS_PASSWORD"), "Redis password")
	tail.Flags().StringVar(&stream, "stream", "", "Stream key (default omifemcuts:events)")
	tail.Flags().StringVar(&group, "group", "shopctl", "Consumer group")
	tail.Flags().StringVar(&consumer, "consumer", hostname(), "Consumer name")
	eventsCmd.AddCommand(tail)
	return eventsCmd
}

var eventsSubscriber = func(addr, password, stream string) (*events.RedisStreamPublisher, error) {
	return events.NewRedisStreamPublisher(events.RedisStreamConfig{Addr: addr, Password: password, Stream: stream})
}

func hostname() string {
	name, err := os.Hostname()
	if err != nil || name == "" {
		return "shopctl"
	}
	return name
}
