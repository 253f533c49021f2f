package config

import (
	"fmt"
	"net"
	"strconv"
	"tms/utils"

	"github.com/segmentio/kafka-go"
)

const pointsTaskTopic = "team-points-tasks"

func CreatePointsTaskTopic() error {
	broker := Env().KafkaBroker
	if broker == "" {
		return fmt.Errorf("KAFKA_BROKER environment variable not set")
	}

	conn, err := kafka.Dial("tcp", broker)
	if err != nil {
		return err
	}
	defer utils.Closer(conn)()

	controller, err := conn.Controller()
	if err != nil {
		return err
	}
	controllerConn, err := kafka.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return err
	}
	defer utils.Closer(controllerConn)()

	topicConfig := kafka.TopicConfig{
		Topic:             pointsTaskTopic,
		NumPartitions:     1,
		ReplicationFactor: 1,
		ConfigEntries: []kafka.ConfigEntry{
			// 7 days retention
			{
				ConfigName:  "retention.ms",
				ConfigValue: "604800000",
			},
			{
				ConfigName:  "retention.bytes",
				ConfigValue: "-1",
			},
		},
	}

	return controllerConn.CreateTopics(topicConfig)
}

func GetPointsTaskWriter() (*kafka.Writer, error) {
	broker := Env().KafkaBroker
	if broker == "" {
		return nil, fmt.Errorf("KAFKA_BROKER environment variable not set")
	}
	return kafka.NewWriter(kafka.WriterConfig{
		Brokers: []string{broker},
		Topic:   pointsTaskTopic,
	}), nil
}

func GetPointsTaskReader(consumerId int) (*kafka.Reader, error) {
	broker := Env().KafkaBroker
	if broker == "" {
		return nil, fmt.Errorf("KAFKA_BROKER environment variable not set")
	}

	err := CreatePointsTaskTopic()
	if err != nil {
		return nil, err
	}
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       pointsTaskTopic,
		GroupID:     fmt.Sprintf("%s-%d", pointsTaskTopic, consumerId),
		StartOffset: kafka.FirstOffset, // Start from the beginning
	}), nil
}
