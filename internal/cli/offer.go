package cli

import (
	"fmt"
	"os"

	"github.com/raphaelgruber/tripchat/internal/models"
	"github.com/spf13/cobra"
)

var offerCmd = &cobra.Command{
	Use:   "offer <offer-id>",
	Short: "Show bookable details for a flight offer",
	Long: `Fetch the current price, fare rules and expiry of a flight offer.

The offer id is printed with each flight card (see "tripchat ask").

Examples:
  tripchat offer off_0000AbCdEf`,
	Args: cobra.ExactArgs(1),
	RunE: runOffer,
}

func runOffer(cmd *cobra.Command, args []string) error {
	resp, err := apiClient.GetOfferDetails(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("get offer: %w", err)
	}

	out := newOutput(os.Stdout)
	printOffer(out, resp)
	return nil
}

func printOffer(out *output, resp *models.OfferResponse) {
	t := out.theme
	o := resp.Offer

	out.println(out.style(t.titleStyle(), fmt.Sprintf("%s (%s)", o.Airline.Name, o.Airline.Code)))
	out.printf("Offer:   %s\n", o.OfferID)
	out.printf("Price:   %s %.2f (base %.2f, tax %.2f)\n", o.Price.Currency, o.Price.Total, o.Price.Base, o.Price.Tax)
	if o.Metadata.CabinClass != "" {
		cabin := o.Metadata.CabinClass
		if o.Metadata.FareBrand != "" {
			cabin += ", " + o.Metadata.FareBrand
		}
		out.printf("Cabin:   %s\n", cabin)
	}
	out.printf("Policy:  %s, %s\n", yesNo(o.Policies.Refundable, "refundable", "non-refundable"),
		yesNo(o.Policies.Changeable, "changeable", "no changes"))
	if o.Metadata.EmissionsKg > 0 {
		out.printf("CO2:     %.0f kg %s\n", o.Metadata.EmissionsKg, o.Metadata.EmissionsLabel)
	}

	switch {
	case o.BookingInfo.IsExpired:
		out.println(out.style(t.errorStyle(), "Offer has expired"))
	case o.BookingInfo.ExpiresSoon:
		out.println(out.style(t.errorStyle(), fmt.Sprintf("Expires in %d minutes", o.BookingInfo.ExpiresInMinutes)))
	case o.BookingInfo.ExpiresAt != "":
		out.printf("Expires: %s\n", o.BookingInfo.ExpiresAt)
	}

	if pc := resp.PriceChange; pc != nil && pc.Changed {
		direction := "dropped"
		if pc.Increased {
			direction = "increased"
		}
		out.println(out.style(t.accentStyle(), fmt.Sprintf("Price %s from %.2f to %.2f (%+.1f%%)",
			direction, pc.OldPrice, pc.NewPrice, pc.PercentChange)))
	}
	if resp.Cached {
		out.println(out.style(t.hintStyle(), "cached"))
	}
}

func yesNo(b bool, yes, no string) string {
	if b {
		return yes
	}
	return no
}
