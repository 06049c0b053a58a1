package workflow

import "github.com/garyjia/calaim-taskhub/internal/domain/entity"

// Well-known statuses referenced outside the definitions
const (
	StatusOnHold = "On-Hold"
)

// Generic values used when a status has no profile anywhere
const (
	DefaultNextAction      = "Review case and determine next steps"
	DefaultEstimatedDays   = 14
	DefaultRecommendedDays = 7
	defaultColor           = "bg-gray-100 text-gray-800"
	defaultIcon            = "circle"
)

// DefaultDefinitions returns the built-in Kaiser and Health Net workflows
func DefaultDefinitions() []Definition {
	return []Definition{KaiserDefinition(), HealthNetDefinition()}
}

// KaiserDefinition is the Kaiser community-supports placement chain
func KaiserDefinition() Definition {
	return Definition{
		HealthPlan: entity.HealthPlanKaiser,
		Name:       "Kaiser Community Supports",
		Steps: []Step{
			{
				StatusProfile: StatusProfile{
					Status: "Pre-T2038, Compiling Docs", NextAction: "Gather member documents for T2038 request",
					EstimatedDays: 7, Criticality: CriticalityStandard, Color: "bg-slate-100 text-slate-800", Icon: "folder",
				},
				NextStatus:      "T2038 Requested",
				RecommendedDays: 5,
				RequiredActions: []string{"Collect face sheet", "Collect medication list", "Confirm member consent"},
				Description:     "Compiling documents before requesting T2038 authorization",
			},
			{
				StatusProfile: StatusProfile{
					Status: "T2038 Requested", NextAction: "Follow up with Kaiser on T2038 status",
					EstimatedDays: 10, Criticality: CriticalityImportant, Color: "bg-blue-100 text-blue-800", Icon: "send",
				},
				NextStatus:            "T2038 received, Need First Contact",
				RecommendedDays:       10,
				RequiredActions:       []string{"Submit T2038 request", "Track request confirmation"},
				AutoAdvanceConditions: []string{"t2038_received"},
				Description:           "T2038 authorization requested from Kaiser",
			},
			{
				StatusProfile: StatusProfile{
					Status: "T2038 received, Need First Contact", NextAction: "Make first contact with member",
					EstimatedDays: 3, Criticality: CriticalityImportant, Color: "bg-indigo-100 text-indigo-800", Icon: "phone",
				},
				NextStatus:      "T2038 received, doc collection",
				RecommendedDays: 2,
				RequiredActions: []string{"Call member or family", "Log contact attempt"},
				Description:     "Authorization received; member has not been contacted",
			},
			{
				StatusProfile: StatusProfile{
					Status: "T2038 received, doc collection", NextAction: "Collect remaining documents from member",
					EstimatedDays: 7, Criticality: CriticalityStandard, Color: "bg-indigo-100 text-indigo-800", Icon: "file-text",
				},
				NextStatus:      "RN Visit Needed",
				RecommendedDays: 5,
				RequiredActions: []string{"Request ID and insurance cards", "Collect signed release forms"},
				Description:     "Collecting member documents after authorization",
			},
			{
				StatusProfile: StatusProfile{
					Status: "RN Visit Needed", NextAction: "Schedule RN/MSW visit",
					EstimatedDays: 5, Criticality: CriticalityImportant, Color: "bg-amber-100 text-amber-800", Icon: "stethoscope",
				},
				NextStatus:      "RN/MSW Scheduled",
				RecommendedDays: 3,
				RequiredActions: []string{"Coordinate visit date with member", "Assign RN or MSW"},
				Description:     "Member needs an RN/MSW assessment visit",
			},
			{
				StatusProfile: StatusProfile{
					Status: "RN/MSW Scheduled", NextAction: "Confirm visit completion",
					EstimatedDays: 7, Criticality: CriticalityStandard, Color: "bg-amber-100 text-amber-800", Icon: "calendar",
				},
				NextStatus:            "RN Visit Complete",
				RecommendedDays:       7,
				RequiredActions:       []string{"Send visit reminder"},
				AutoAdvanceConditions: []string{"rn_visit_completed"},
				Description:           "RN/MSW visit is on the calendar",
			},
			{
				StatusProfile: StatusProfile{
					Status: "RN Visit Complete", NextAction: "Review assessment and determine tier level",
					EstimatedDays: 3, Criticality: CriticalityStandard, Color: "bg-green-100 text-green-800", Icon: "clipboard-check",
				},
				NextStatus:      "Need Tier Level",
				RecommendedDays: 2,
				RequiredActions: []string{"Upload visit notes"},
				Description:     "Assessment visit finished",
			},
			{
				StatusProfile: StatusProfile{
					Status: "Need Tier Level", NextAction: "Request tier level from Kaiser",
					EstimatedDays: 3, Criticality: CriticalityImportant, Color: "bg-purple-100 text-purple-800", Icon: "layers",
				},
				NextStatus:      "Tier Level Requested",
				RecommendedDays: 2,
				RequiredActions: []string{"Prepare tier level packet"},
				Description:     "Tier level must be requested",
			},
			{
				StatusProfile: StatusProfile{
					Status: "Tier Level Requested", NextAction: "Follow up on tier level determination",
					EstimatedDays: 10, Criticality: CriticalityStandard, Color: "bg-purple-100 text-purple-800", Icon: "clock",
				},
				NextStatus:            "Tier Level Received",
				RecommendedDays:       10,
				RequiredActions:       []string{"Track determination"},
				AutoAdvanceConditions: []string{"tier_level_received"},
				Description:           "Waiting on Kaiser tier level determination",
			},
			{
				StatusProfile: StatusProfile{
					Status: "Tier Level Received", NextAction: "Review tier level and decide on appeal",
					EstimatedDays: 3, Criticality: CriticalityStandard, Color: "bg-purple-100 text-purple-800", Icon: "inbox",
				},
				NextStatus:      "Tier Level Appeal",
				RecommendedDays: 2,
				RequiredActions: []string{"Compare tier with assessment"},
				CanSkip:         true,
				Description:     "Tier level received; appeal only if the level is wrong",
			},
			{
				StatusProfile: StatusProfile{
					Status: "Tier Level Appeal", NextAction: "Submit tier level appeal with supporting documents",
					EstimatedDays: 14, Criticality: CriticalityCritical, Complex: true, Color: "bg-red-100 text-red-800", Icon: "alert-triangle",
				},
				NextStatus:      "Locating RCFEs",
				RecommendedDays: 10,
				RequiredActions: []string{"File appeal", "Attach clinical justification"},
				CanSkip:         true,
				Description:     "Appealing the tier level determination",
			},
			{
				StatusProfile: StatusProfile{
					Status: "Locating RCFEs", NextAction: "Identify RCFEs with availability",
					EstimatedDays: 14, Criticality: CriticalityStandard, Color: "bg-teal-100 text-teal-800", Icon: "map-pin",
				},
				NextStatus:      "Found RCFE",
				RecommendedDays: 10,
				RequiredActions: []string{"Contact RCFEs in member county", "Share member profile"},
				Description:     "Searching for a residential care facility",
			},
			{
				StatusProfile: StatusProfile{
					Status: "Found RCFE", NextAction: "Request room and board agreement",
					EstimatedDays: 3, Criticality: CriticalityStandard, Color: "bg-teal-100 text-teal-800", Icon: "home",
				},
				NextStatus:      "R&B Requested",
				RecommendedDays: 2,
				RequiredActions: []string{"Confirm bed availability"},
				Description:     "RCFE identified",
			},
			{
				StatusProfile: StatusProfile{
					Status: "R&B Requested", NextAction: "Follow up on room and board signature",
					EstimatedDays: 7, Criticality: CriticalityImportant, Color: "bg-cyan-100 text-cyan-800", Icon: "file-signature",
				},
				NextStatus:            "R&B Signed",
				RecommendedDays:       5,
				RequiredActions:       []string{"Send R&B agreement to member and facility"},
				AutoAdvanceConditions: []string{"rb_signed"},
				Description:           "Room and board agreement sent for signature",
			},
			{
				StatusProfile: StatusProfile{
					Status: "R&B Signed", NextAction: "Submit RCFE/ILS for contracting",
					EstimatedDays: 3, Criticality: CriticalityStandard, Color: "bg-cyan-100 text-cyan-800", Icon: "pen-tool",
				},
				NextStatus:      "RCFE/ILS for Contracting",
				RecommendedDays: 2,
				RequiredActions: []string{"File signed agreement"},
				Description:     "Room and board agreement signed",
			},
			{
				StatusProfile: StatusProfile{
					Status: "RCFE/ILS for Contracting", NextAction: "Send ILS contracting packet",
					EstimatedDays: 5, Criticality: CriticalityStandard, Color: "bg-orange-100 text-orange-800", Icon: "briefcase",
				},
				NextStatus:      "ILS Contracting Sent",
				RecommendedDays: 3,
				RequiredActions: []string{"Prepare contracting packet"},
				Description:     "Facility ready to be contracted",
			},
			{
				StatusProfile: StatusProfile{
					Status: "ILS Contracting Sent", NextAction: "Confirm contract receipt with ILS",
					EstimatedDays: 7, Criticality: CriticalityStandard, Color: "bg-orange-100 text-orange-800", Icon: "mail",
				},
				NextStatus:            "Confirm ILS Contracted",
				RecommendedDays:       5,
				RequiredActions:       []string{"Track contract status"},
				AutoAdvanceConditions: []string{"ils_contract_confirmed"},
				Description:           "Contracting packet sent to ILS",
			},
			{
				StatusProfile: StatusProfile{
					Status: "Confirm ILS Contracted", NextAction: "Verify ILS contract is executed",
					EstimatedDays: 3, Criticality: CriticalityCompletion, Color: "bg-lime-100 text-lime-800", Icon: "shield-check",
				},
				NextStatus:      "ILS Contracted and Member Moved In",
				RecommendedDays: 3,
				RequiredActions: []string{"Obtain executed contract"},
				Description:     "Waiting on ILS contract confirmation",
			},
			{
				StatusProfile: StatusProfile{
					Status: "ILS Contracted and Member Moved In", NextAction: "Close out case and confirm move-in",
					EstimatedDays: 2, Criticality: CriticalityCompletion, Color: "bg-emerald-100 text-emerald-800", Icon: "key",
				},
				NextStatus:      "Complete",
				RecommendedDays: 2,
				RequiredActions: []string{"Confirm move-in date", "Close authorization"},
				Description:     "Member has moved in; case close-out pending",
			},
			{
				StatusProfile: StatusProfile{
					Status: "Complete", NextAction: "No action needed",
					EstimatedDays: 0, Criticality: CriticalityStandard, Color: "bg-green-100 text-green-800", Icon: "check-circle",
				},
				Description: "Case complete",
			},
		},
		CompletionCriteria: []string{"Complete"},
		AuxiliaryStatuses: []StatusProfile{
			{
				Status: StatusOnHold, NextAction: "Check whether hold reason is resolved",
				EstimatedDays: 14, Criticality: CriticalityStandard, Complex: true, Color: "bg-yellow-100 text-yellow-800", Icon: "pause-circle",
			},
			{
				Status: "T2038 Request Revision", NextAction: "Revise and resubmit T2038 request",
				EstimatedDays: 5, Criticality: CriticalityCritical, Complex: true, Color: "bg-red-100 text-red-800", Icon: "rotate-ccw",
			},
			{
				Status: "Tier Level Revision Request", NextAction: "Submit tier level revision",
				EstimatedDays: 7, Criticality: CriticalityCritical, Complex: true, Color: "bg-red-100 text-red-800", Icon: "rotate-ccw",
			},
			{
				Status: "Non-active", NextAction: "Confirm case closure reason",
				EstimatedDays: 30, Criticality: CriticalityStandard, Color: "bg-gray-100 text-gray-500", Icon: "archive",
			},
		},
	}
}

// HealthNetDefinition is the Health Net ISP and authorization chain
func HealthNetDefinition() Definition {
	return Definition{
		HealthPlan: entity.HealthPlanHealthNet,
		Name:       "Health Net Community Supports",
		Steps: []Step{
			{
				StatusProfile: StatusProfile{
					Status: "Application Received", NextAction: "Review application and contact member",
					EstimatedDays: 3, Criticality: CriticalityStandard, Color: "bg-slate-100 text-slate-800", Icon: "inbox",
				},
				NextStatus:      "Scheduling ISP",
				RecommendedDays: 3,
				RequiredActions: []string{"Verify eligibility", "Contact member"},
				Description:     "New Health Net application",
			},
			{
				StatusProfile: StatusProfile{
					Status: "Scheduling ISP", NextAction: "Schedule individual service plan meeting",
					EstimatedDays: 5, Criticality: CriticalityStandard, Color: "bg-blue-100 text-blue-800", Icon: "calendar",
				},
				NextStatus:            "ISP Scheduled",
				RecommendedDays:       5,
				RequiredActions:       []string{"Offer meeting times to member"},
				AutoAdvanceConditions: []string{"isp_date_confirmed"},
				Description:           "Finding a date for the ISP meeting",
			},
			{
				StatusProfile: StatusProfile{
					Status: "ISP Scheduled", NextAction: "Hold ISP meeting and document plan",
					EstimatedDays: 7, Criticality: CriticalityImportant, Color: "bg-indigo-100 text-indigo-800", Icon: "users",
				},
				NextStatus:            "ISP Submitted",
				RecommendedDays:       7,
				RequiredActions:       []string{"Send meeting reminder", "Prepare ISP template"},
				AutoAdvanceConditions: []string{"isp_submitted"},
				Description:           "ISP meeting on the calendar",
			},
			{
				StatusProfile: StatusProfile{
					Status: "ISP Submitted", NextAction: "Request authorization from Health Net",
					EstimatedDays: 3, Criticality: CriticalityStandard, Color: "bg-purple-100 text-purple-800", Icon: "file-text",
				},
				NextStatus:      "Authorization Requested",
				RecommendedDays: 2,
				RequiredActions: []string{"Attach ISP to authorization request"},
				Description:     "ISP submitted to Health Net",
			},
			{
				StatusProfile: StatusProfile{
					Status: "Authorization Requested", NextAction: "Follow up on authorization decision",
					EstimatedDays: 10, Criticality: CriticalityImportant, Color: "bg-orange-100 text-orange-800", Icon: "clock",
				},
				NextStatus:            "Authorization Complete",
				RecommendedDays:       10,
				RequiredActions:       []string{"Track authorization number"},
				AutoAdvanceConditions: []string{"authorization_received"},
				Description:           "Waiting on Health Net authorization",
			},
			{
				StatusProfile: StatusProfile{
					Status: "Authorization Complete", NextAction: "No action needed",
					EstimatedDays: 0, Criticality: CriticalityStandard, Color: "bg-green-100 text-green-800", Icon: "check-circle",
				},
				Description: "Authorization issued",
			},
		},
		CompletionCriteria: []string{"Authorization Complete"},
		AuxiliaryStatuses: []StatusProfile{
			{
				Status: StatusOnHold, NextAction: "Check whether hold reason is resolved",
				EstimatedDays: 14, Criticality: CriticalityStandard, Complex: true, Color: "bg-yellow-100 text-yellow-800", Icon: "pause-circle",
			},
			{
				Status: "Authorization Denied", NextAction: "Prepare authorization appeal",
				EstimatedDays: 10, Criticality: CriticalityCritical, Complex: true, Color: "bg-red-100 text-red-800", Icon: "x-circle",
			},
		},
	}
}

// genericProfile is used when no workflow knows a status
func genericProfile(status string) StatusProfile {
	return StatusProfile{
		Status:        status,
		NextAction:    DefaultNextAction,
		EstimatedDays: DefaultEstimatedDays,
		Criticality:   CriticalityStandard,
		Color:         defaultColor,
		Icon:          defaultIcon,
	}
}
