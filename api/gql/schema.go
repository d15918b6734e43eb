// Package gql exposes the analytics engine as a read-only GraphQL schema
package gql

import (
	"encoding/json"
	"strings"

	"github.com/graphql-go/graphql"

	"github.com/itsatony/w4b_v3/server/analytics/api/resources"
	"github.com/itsatony/w4b_v3/server/analytics/internal/analytics"
	"github.com/itsatony/w4b_v3/server/analytics/internal/errors"
	"github.com/itsatony/w4b_v3/server/analytics/internal/models"
)

var metricResultType = graphql.NewObject(graphql.ObjectConfig{
	Name: "MetricResult",
	Fields: graphql.Fields{
		"metricName":   &graphql.Field{Type: graphql.String},
		"value":        &graphql.Field{Type: graphql.Float},
		"unit":         &graphql.Field{Type: graphql.String},
		"calculatedAt": &graphql.Field{Type: graphql.String},
		"controllerId": &graphql.Field{Type: graphql.String},
		"description":  &graphql.Field{Type: graphql.String},
	},
})

var reportType = graphql.NewObject(graphql.ObjectConfig{
	Name: "AnalyticsReport",
	Fields: graphql.Fields{
		"controllerId":    &graphql.Field{Type: graphql.String},
		"metrics":         &graphql.Field{Type: graphql.NewList(metricResultType)},
		"generatedAt":     &graphql.Field{Type: graphql.String},
		"dataPointsCount": &graphql.Field{Type: graphql.Int},
	},
})

var multiReportType = graphql.NewObject(graphql.ObjectConfig{
	Name: "MultiReport",
	Fields: graphql.Fields{
		"reports":          &graphql.Field{Type: graphql.NewList(reportType)},
		"generatedAt":      &graphql.Field{Type: graphql.String},
		"totalControllers": &graphql.Field{Type: graphql.Int},
		"totalMetrics":     &graphql.Field{Type: graphql.Int},
	},
})

var trendPointType = graphql.NewObject(graphql.ObjectConfig{
	Name: "TrendDataPoint",
	Fields: graphql.Fields{
		"timestamp": &graphql.Field{Type: graphql.String},
		"value":     &graphql.Field{Type: graphql.Float},
		"interval":  &graphql.Field{Type: graphql.String},
	},
})

var trendType = graphql.NewObject(graphql.ObjectConfig{
	Name: "TrendAnalysis",
	Fields: graphql.Fields{
		"metricName":   &graphql.Field{Type: graphql.String},
		"controllerId": &graphql.Field{Type: graphql.String},
		"interval":     &graphql.Field{Type: graphql.String},
		"dataPoints":   &graphql.Field{Type: graphql.NewList(trendPointType)},
		"generatedAt":  &graphql.Field{Type: graphql.String},
		"totalPoints":  &graphql.Field{Type: graphql.Int},
		"averageValue": &graphql.Field{Type: graphql.Float},
		"minValue":     &graphql.Field{Type: graphql.Float},
		"maxValue":     &graphql.Field{Type: graphql.Float},
	},
})

var measurementType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Measurement",
	Fields: graphql.Fields{
		"controllerId":   &graphql.Field{Type: graphql.String},
		"timestamp":      &graphql.Field{Type: graphql.String},
		"soilHumidity":   &graphql.Field{Type: graphql.Float},
		"airHumidity":    &graphql.Field{Type: graphql.Float},
		"temperature":    &graphql.Field{Type: graphql.Float},
		"lightIntensity": &graphql.Field{Type: graphql.Float},
		"sensorId":       &graphql.Field{Type: graphql.String},
		"zone":           &graphql.Field{Type: graphql.String},
	},
})

var historicalPointType = graphql.NewObject(graphql.ObjectConfig{
	Name: "HistoricalDataPoint",
	Fields: graphql.Fields{
		"timestamp":    &graphql.Field{Type: graphql.String},
		"controllerId": &graphql.Field{Type: graphql.String},
		"sensorId":     &graphql.Field{Type: graphql.String},
		"parameter":    &graphql.Field{Type: graphql.String},
		"value":        &graphql.Field{Type: graphql.Float},
	},
})

var historicalType = graphql.NewObject(graphql.ObjectConfig{
	Name: "HistoricalData",
	Fields: graphql.Fields{
		"points":      &graphql.Field{Type: graphql.NewList(historicalPointType)},
		"totalPoints": &graphql.Field{Type: graphql.Int},
	},
})

var averagePointType = graphql.NewObject(graphql.ObjectConfig{
	Name: "HistoricalAverageDataPoint",
	Fields: graphql.Fields{
		"intervalStart":     &graphql.Field{Type: graphql.String},
		"intervalEnd":       &graphql.Field{Type: graphql.String},
		"controllerId":      &graphql.Field{Type: graphql.String},
		"parameter":         &graphql.Field{Type: graphql.String},
		"averageValue":      &graphql.Field{Type: graphql.Float},
		"measurementsCount": &graphql.Field{Type: graphql.Int},
	},
})

var averagesType = graphql.NewObject(graphql.ObjectConfig{
	Name: "HistoricalAverages",
	Fields: graphql.Fields{
		"points":          &graphql.Field{Type: graphql.NewList(averagePointType)},
		"intervalMinutes": &graphql.Field{Type: graphql.Int},
		"totalPoints":     &graphql.Field{Type: graphql.Int},
	},
})

func filterArgs(extra graphql.FieldConfigArgument) graphql.FieldConfigArgument {
	args := graphql.FieldConfigArgument{
		"startTime": &graphql.ArgumentConfig{Type: graphql.String},
		"endTime":   &graphql.ArgumentConfig{Type: graphql.String},
		"limit":     &graphql.ArgumentConfig{Type: graphql.Int},
		"realTime":  &graphql.ArgumentConfig{Type: graphql.Boolean},
	}
	for k, v := range extra {
		args[k] = v
	}
	return args
}

var historicalArgs = graphql.FieldConfigArgument{
	"controllerId": &graphql.ArgumentConfig{Type: graphql.String},
	"controllers":  &graphql.ArgumentConfig{Type: graphql.NewList(graphql.String)},
	"sensorId":     &graphql.ArgumentConfig{Type: graphql.String},
	"zone":         &graphql.ArgumentConfig{Type: graphql.String},
	"parameter":    &graphql.ArgumentConfig{Type: graphql.String},
	"startTime":    &graphql.ArgumentConfig{Type: graphql.String},
	"endTime":      &graphql.ArgumentConfig{Type: graphql.String},
	"limit":        &graphql.ArgumentConfig{Type: graphql.Int},
}

// NewSchema builds the query schema over engine
func NewSchema(engine analytics.Engine) (graphql.Schema, error) {
	r := &resolver{engine: engine}

	averageArgs := graphql.FieldConfigArgument{
		"averageInterval": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 60},
	}
	for k, v := range historicalArgs {
		averageArgs[k] = v
	}

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"supportedMetrics": &graphql.Field{
				Type: graphql.NewList(graphql.String),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return engine.SupportedMetrics(), nil
				},
			},
			"analyticsHealth": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if engine.HealthCheck(p.Context) {
						return "healthy", nil
					}
					return "degraded", nil
				},
			},
			"singleMetricReport": &graphql.Field{
				Type: reportType,
				Args: filterArgs(graphql.FieldConfigArgument{
					"metric":       &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"controllerId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				}),
				Resolve: r.singleMetricReport,
			},
			"multiMetricReport": &graphql.Field{
				Type: multiReportType,
				Args: filterArgs(graphql.FieldConfigArgument{
					"controllers": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.NewList(graphql.String))},
					"metrics":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.NewList(graphql.String))},
				}),
				Resolve: r.multiMetricReport,
			},
			"trendAnalysis": &graphql.Field{
				Type: trendType,
				Args: graphql.FieldConfigArgument{
					"metric":       &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"controllerId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"startTime":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"endTime":      &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"interval":     &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: analytics.DefaultTrendInterval},
				},
				Resolve: r.trendAnalysis,
			},
			"latestMeasurement": &graphql.Field{
				Type: measurementType,
				Args: graphql.FieldConfigArgument{
					"controllerId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: r.latestMeasurement,
			},
			"historicalData": &graphql.Field{
				Type:    historicalType,
				Args:    historicalArgs,
				Resolve: r.historicalData,
			},
			"historicalAverages": &graphql.Field{
				Type:    averagesType,
				Args:    averageArgs,
				Resolve: r.historicalAverages,
			},
		},
	})
	return graphql.NewSchema(graphql.SchemaConfig{Query: query})
}

type resolver struct {
	engine analytics.Engine
}

func (r *resolver) singleMetricReport(p graphql.ResolveParams) (interface{}, error) {
	filters, err := analyticsFilter(p.Args)
	if err != nil {
		return nil, err
	}
	report, err := r.engine.GenerateSingleMetricReport(p.Context, stringArg(p.Args, "metric"), stringArg(p.Args, "controllerId"), filters)
	if err != nil {
		return nil, err
	}
	return camelize(report)
}

func (r *resolver) multiMetricReport(p graphql.ResolveParams) (interface{}, error) {
	filters, err := analyticsFilter(p.Args)
	if err != nil {
		return nil, err
	}
	resp, err := r.engine.GenerateMultiReport(p.Context, models.MultiReportRequest{
		Controllers: stringsArg(p.Args, "controllers"),
		Metrics:     stringsArg(p.Args, "metrics"),
		Filters:     filters,
	})
	if err != nil {
		return nil, err
	}
	reports := make([]*models.AnalyticsReport, 0, len(resp.ControllerOrder))
	for _, id := range resp.ControllerOrder {
		reports = append(reports, resp.Reports[id])
	}
	return camelize(map[string]interface{}{
		"reports":           reports,
		"generated_at":      resp.GeneratedAt,
		"total_controllers": resp.TotalControllers,
		"total_metrics":     resp.TotalMetrics,
	})
}

func (r *resolver) trendAnalysis(p graphql.ResolveParams) (interface{}, error) {
	start, err := resources.ParseTime(stringArg(p.Args, "startTime"))
	if err != nil {
		return nil, err
	}
	end, err := resources.ParseTime(stringArg(p.Args, "endTime"))
	if err != nil {
		return nil, err
	}
	if start == nil || end == nil {
		return nil, errors.NewInvalidRequestError("startTime and endTime are required", nil)
	}
	trend, err := r.engine.GenerateTrendAnalysis(p.Context, stringArg(p.Args, "metric"), stringArg(p.Args, "controllerId"), *start, *end, stringArg(p.Args, "interval"))
	if err != nil {
		return nil, err
	}
	out, err := camelize(trend)
	if err != nil {
		return nil, err
	}
	m := out.(map[string]interface{})
	m["totalPoints"] = trend.TotalPoints()
	m["averageValue"] = trend.AverageValue()
	m["minValue"] = trend.MinValue()
	m["maxValue"] = trend.MaxValue()
	return m, nil
}

func (r *resolver) latestMeasurement(p graphql.ResolveParams) (interface{}, error) {
	m, err := r.engine.GetLatestMeasurement(p.Context, stringArg(p.Args, "controllerId"))
	if err != nil || m == nil {
		return nil, err
	}
	return camelize(m)
}

func (r *resolver) historicalData(p graphql.ResolveParams) (interface{}, error) {
	filters, err := historicalFilter(p.Args)
	if err != nil {
		return nil, err
	}
	resp, err := r.engine.QueryHistoricalData(p.Context, filters)
	if err != nil {
		return nil, err
	}
	return camelize(resp)
}

func (r *resolver) historicalAverages(p graphql.ResolveParams) (interface{}, error) {
	filters, err := historicalFilter(p.Args)
	if err != nil {
		return nil, err
	}
	interval, _ := p.Args["averageInterval"].(int)
	resp, err := r.engine.QueryHistoricalAverages(p.Context, filters, interval)
	if err != nil {
		return nil, err
	}
	return camelize(resp)
}

func analyticsFilter(args map[string]interface{}) (models.AnalyticsFilter, error) {
	start, err := resources.ParseTime(stringArg(args, "startTime"))
	if err != nil {
		return models.AnalyticsFilter{}, err
	}
	end, err := resources.ParseTime(stringArg(args, "endTime"))
	if err != nil {
		return models.AnalyticsFilter{}, err
	}
	limit, _ := args["limit"].(int)
	realTime, _ := args["realTime"].(bool)
	return models.AnalyticsFilter{StartTime: start, EndTime: end, Limit: limit, RealTime: realTime}, nil
}

func historicalFilter(args map[string]interface{}) (models.HistoricalQueryFilter, error) {
	start, err := resources.ParseTime(stringArg(args, "startTime"))
	if err != nil {
		return models.HistoricalQueryFilter{}, err
	}
	end, err := resources.ParseTime(stringArg(args, "endTime"))
	if err != nil {
		return models.HistoricalQueryFilter{}, err
	}
	limit, _ := args["limit"].(int)
	return models.HistoricalQueryFilter{
		ControllerID: stringArg(args, "controllerId"),
		Controllers:  stringsArg(args, "controllers"),
		SensorID:     stringArg(args, "sensorId"),
		Zone:         stringArg(args, "zone"),
		Parameter:    stringArg(args, "parameter"),
		StartTime:    start,
		EndTime:      end,
		Limit:        limit,
	}, nil
}

func stringArg(args map[string]interface{}, name string) string {
	s, _ := args[name].(string)
	return s
}

func stringsArg(args map[string]interface{}, name string) []string {
	raw, _ := args[name].([]interface{})
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// camelize turns a JSON-tagged value into maps keyed by camelCase field names
func camelize(v interface{}) (interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var decoded interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, err
	}
	return camelKeys(decoded), nil
}

func camelKeys(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[camelCase(k)] = camelKeys(val)
		}
		return out
	case []interface{}:
		for i := range t {
			t[i] = camelKeys(t[i])
		}
		return t
	}
	return v
}

func camelCase(s string) string {
	parts := strings.Split(s, "_")
	for i := 1; i < len(parts); i++ {
		if parts[i] != "" {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, "")
}
