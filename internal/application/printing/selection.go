package printing

import (
	"fmt"

	"github.com/warecore/printd/internal/domain/printing"
	"github.com/warecore/printd/internal/infrastructure/delivery"
)

// DeliveryPlan is the outcome of driver selection: which format to render
// and where to send the result. EncodeBase64 asks the caller to base64
// encode the rendered payload before handing it to the driver.
type DeliveryPlan struct {
	Format       printing.LabelFormat
	Destination  delivery.Destination
	EncodeBase64 bool
}

// ResolveDelivery maps a job and its printer snapshot to a delivery plan.
// It is a pure function with no network or storage access.
//
// Selection policy:
//   - driver "zpl": render zpl, deliver raw to the printer's host and port
//   - driver "ipp": render pdf; with a configured uri deliver over IPP,
//     without one degrade to a stored pdf artifact
//   - no printer or any other driver tag: render zpl, store as artifact
func ResolveDelivery(job *printing.PrintJob, printer *printing.Printer) DeliveryPlan {
	if printer == nil {
		return filePlan(job, printing.FormatZPL, false)
	}

	switch printer.Driver {
	case printing.DriverZPL:
		return DeliveryPlan{
			Format: printing.FormatZPL,
			Destination: delivery.RawDestination{
				Host: printer.Host,
				Port: printer.EndpointPort(),
			},
		}

	case printing.DriverIPP:
		uri := printer.URI()
		if uri == "" {
			return filePlan(job, printing.FormatPDF, true)
		}
		return DeliveryPlan{
			Format: printing.FormatPDF,
			Destination: delivery.IPPDestination{
				URI:      uri,
				OrgID:    job.OrgID,
				Format:   string(printing.FormatPDF),
				IsBase64: printer.Config["base64"] == "true",
				JobName:  fmt.Sprintf("printd-%s-%s", job.ID, job.Requester()),
				Username: job.Requester(),
			},
		}

	default:
		return filePlan(job, printing.FormatZPL, false)
	}
}

func filePlan(job *printing.PrintJob, format printing.LabelFormat, base64 bool) DeliveryPlan {
	return DeliveryPlan{
		Format: format,
		Destination: delivery.FileDestination{
			OrgName:  job.OrgName(),
			Format:   string(format),
			IsBase64: base64,
		},
		EncodeBase64: base64,
	}
}
