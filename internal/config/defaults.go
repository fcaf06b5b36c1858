package config

import "roster/internal/ppmi"

const (
	defaultDatasetRoot          = "~/ppmi"
	defaultImagingInfoFilename  = "idaSearch.csv"
	defaultImagingFilename      = "idaSearch.csv"
	defaultGroupFilename        = "Participant_Status.csv"
	defaultDescriptionsFilename = "ppmi_imaging_descriptions.json"
	defaultIgnoredFilename      = "ppmi_imaging_ignored.csv"
	defaultManifestFilename     = "mr_proc_manifest.csv"
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultLogRetentionDays     = 30
)

// Session codes for Baseline, Month 6, Month 12, Month 24, Month 48.
func defaultSessions() []string {
	return []string{"1", "3", "5", "7", "11"}
}

func defaultTabularFilenames() []string {
	return []string{
		"Age_at_visit.csv",
		"Montreal_Cognitive_Assessment__MoCA_.csv",
		"MDS-UPDRS_Part_I.csv",
		"MDS-UPDRS_Part_I_Patient_Questionnaire.csv",
		"MDS_UPDRS_Part_II__Patient_Questionnaire.csv",
		"MDS-UPDRS_Part_III.csv",
		"MDS-UPDRS_Part_IV__Motor_Complications.csv",
	}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DatasetRoot: defaultDatasetRoot,
		},
		Study: Study{
			Sessions:   defaultSessions(),
			GroupsKeep: ppmi.DefaultGroupsKeep(),
		},
		Inputs: Inputs{
			ImagingInfoFilename: defaultImagingInfoFilename,
			ImagingFilename:     defaultImagingFilename,
			TabularFilenames:    defaultTabularFilenames(),
			GroupFilename:       defaultGroupFilename,
		},
		Outputs: Outputs{
			DescriptionsFilename: defaultDescriptionsFilename,
			IgnoredFilename:      defaultIgnoredFilename,
			ManifestFilename:     defaultManifestFilename,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
